package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	stdhtml "html"
)

const timedTextEndpoint = "https://www.youtube.com/api/timedtext"

type timedTextDoc struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// fetchTranscript pulls the caption track for a video URL via the timedtext
// API and joins the caption lines into one text.
func (f *Fetcher) fetchTranscript(ctx context.Context, u *url.URL) (string, error) {
	videoID := u.Query().Get("v")
	if videoID == "" {
		return "", fmt.Errorf("no video id in url %s", u.String())
	}
	endpoint := timedTextEndpoint + "?lang=en&v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript for %s: %w", videoID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch transcript for %s: unexpected status %s", videoID, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return parseTranscript(body, videoID)
}

func parseTranscript(body []byte, videoID string) (string, error) {
	var doc timedTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("parse transcript for %s: %w", videoID, err)
	}
	parts := make([]string, 0, len(doc.Texts))
	for _, item := range doc.Texts {
		text := strings.TrimSpace(stdhtml.UnescapeString(item.Value))
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no transcript available for video %s", videoID)
	}
	return strings.Join(parts, " "), nil
}
