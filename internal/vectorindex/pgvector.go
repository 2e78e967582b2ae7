package vectorindex

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/LUBTFY/agent-starter-pack/internal/model"
	"github.com/LUBTFY/agent-starter-pack/internal/pkg/dbutil"
	"github.com/LUBTFY/agent-starter-pack/internal/recordio"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// pgService implements the ANN service contract on Postgres with the pgvector
// extension. Index builds are synchronous (the datapoints are loaded in this
// process), so CreateIndex and Deploy "block to completion" trivially.
//
// CreateIndex only accepts file:// source URIs; pair this backend with the
// local object store.
type pgConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type pgService struct {
	db *sqlx.DB
}

func init() {
	Register("pgvector", createPgService)
}

func createPgService(args interface{}) (Service, error) {
	cfg := &pgConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	dsn := cfg.DSN
	if dsn == "" {
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslmode)
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if err := applyMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &pgService{db: db}, nil
}

func applyMigrations(db *sqlx.DB) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	for _, file := range files {
		content, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return err
		}
		queries := strings.Split(string(content), ";")
		for _, q := range queries {
			q = strings.TrimSpace(q)
			if q == "" {
				continue
			}
			if _, err := db.Exec(q); err != nil {
				if strings.Contains(err.Error(), "already exists") {
					continue
				}
				return fmt.Errorf("execute query in %s: %w", file, err)
			}
		}
	}
	return nil
}

func (s *pgService) ListIndexes(ctx context.Context) ([]Index, error) {
	sqlStr, args, err := builder.BuildSelect("rag_indexes", nil, []string{"id", "display_name"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Index
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.ID, &idx.DisplayName); err != nil {
			return nil, err
		}
		result = append(result, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		deployed, err := s.deployedEndpoints(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].DeployedTo = deployed
	}
	return result, nil
}

func (s *pgService) deployedEndpoints(ctx context.Context, indexID string) ([]string, error) {
	sqlStr, args, err := builder.BuildSelect("rag_deployments",
		map[string]interface{}{"index_id": indexID}, []string{"endpoint_id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var endpoints []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		endpoints = append(endpoints, id)
	}
	return endpoints, rows.Err()
}

func (s *pgService) CreateIndex(ctx context.Context, req CreateIndexRequest) (Index, error) {
	indexID := uuid.NewString()
	row := map[string]interface{}{
		"id":                    indexID,
		"display_name":          req.DisplayName,
		"dimensions":            req.Dimensions,
		"approximate_neighbors": req.ApproximateNeighbors,
		"distance_metric":       req.DistanceMetric,
		"state":                 "BUILDING",
		"ctime":                 time.Now().Unix(),
	}
	sqlStr, args, err := builder.BuildInsert("rag_indexes", []map[string]interface{}{row})
	if err != nil {
		return Index{}, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return Index{}, fmt.Errorf("create index row: %w", err)
	}

	count, err := s.loadDatapoints(ctx, indexID, req)
	if err != nil {
		return Index{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE rag_indexes SET state = 'READY' WHERE id = $1`, indexID); err != nil {
		return Index{}, err
	}
	logutil.GetLogger(ctx).Info("pgvector index built",
		zap.String("index_id", indexID),
		zap.String("display_name", req.DisplayName),
		zap.Int("datapoints", count))
	return Index{ID: indexID, DisplayName: req.DisplayName}, nil
}

func (s *pgService) loadDatapoints(ctx context.Context, indexID string, req CreateIndexRequest) (int, error) {
	path, ok := strings.CutPrefix(req.SourceURI, "file://")
	if !ok {
		return 0, fmt.Errorf("pgvector backend requires a file:// source uri, got %q", req.SourceURI)
	}
	const insert = `
		INSERT INTO rag_datapoints (id, index_id, text, source, title, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	count := 0
	err := recordio.ForEach(path, func(rec *model.ChunkRecord) error {
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("record %s has no embedding", rec.ID)
		}
		if len(rec.Embedding) != req.Dimensions {
			return fmt.Errorf("record %s dimension mismatch: got %d, want %d", rec.ID, len(rec.Embedding), req.Dimensions)
		}
		_, err := s.db.ExecContext(ctx, insert,
			rec.ID, indexID, rec.Text, rec.Source, rec.Title, pgvector.NewVector(rec.Embedding))
		if err != nil && dbutil.IsConflict(err) {
			return fmt.Errorf("duplicate datapoint id %s", rec.ID)
		}
		if err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load datapoints from %s: %w", path, err)
	}
	return count, nil
}

func (s *pgService) ListEndpoints(ctx context.Context) ([]Endpoint, error) {
	sqlStr, args, err := builder.BuildSelect("rag_endpoints", nil, []string{"id", "display_name"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Endpoint
	for rows.Next() {
		var ep Endpoint
		if err := rows.Scan(&ep.ID, &ep.DisplayName); err != nil {
			return nil, err
		}
		result = append(result, ep)
	}
	return result, rows.Err()
}

func (s *pgService) CreateEndpoint(ctx context.Context, displayName string, public bool) (Endpoint, error) {
	endpointID := uuid.NewString()
	row := map[string]interface{}{
		"id":           endpointID,
		"display_name": displayName,
		"public":       public,
		"ctime":        time.Now().Unix(),
	}
	sqlStr, args, err := builder.BuildInsert("rag_endpoints", []map[string]interface{}{row})
	if err != nil {
		return Endpoint{}, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return Endpoint{}, fmt.Errorf("create endpoint row: %w", err)
	}
	return Endpoint{ID: endpointID, DisplayName: displayName}, nil
}

func (s *pgService) Deploy(ctx context.Context, req DeployRequest) error {
	row := map[string]interface{}{
		"id":           req.DeploymentID,
		"endpoint_id":  req.EndpointID,
		"index_id":     req.IndexID,
		"machine_type": req.MachineType,
		"min_replicas": req.MinReplicas,
		"max_replicas": req.MaxReplicas,
		"ctime":        time.Now().Unix(),
	}
	sqlStr, args, err := builder.BuildInsert("rag_deployments", []map[string]interface{}{row})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("create deployment row: %w", err)
	}
	return nil
}

func (s *pgService) FindNeighbors(ctx context.Context, endpointID, deploymentID string, vectors [][]float32, k int, returnMetadata bool) ([][]Neighbor, error) {
	indexID, err := s.resolveDeployment(ctx, endpointID, deploymentID)
	if err != nil {
		return nil, err
	}
	// <#> is pgvector's negative inner product; negating it restores the
	// dot-product score the managed service reports as distance.
	const query = `
		SELECT text, source, (embedding <#> $1) * -1 AS distance
		FROM rag_datapoints
		WHERE index_id = $2
		ORDER BY embedding <#> $1
		LIMIT $3
	`
	result := make([][]Neighbor, 0, len(vectors))
	for _, vec := range vectors {
		rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vec), indexID, k)
		if err != nil {
			return nil, err
		}
		var neighbors []Neighbor
		for rows.Next() {
			var text, source string
			var distance float64
			if err := rows.Scan(&text, &source, &distance); err != nil {
				rows.Close()
				return nil, err
			}
			n := Neighbor{Distance: distance}
			if returnMetadata {
				n.Metadata = map[string]string{"text": text, "source": source}
			}
			neighbors = append(neighbors, n)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		result = append(result, neighbors)
	}
	return result, nil
}

func (s *pgService) resolveDeployment(ctx context.Context, endpointID, deploymentID string) (string, error) {
	sqlStr, args, err := builder.BuildSelect("rag_deployments",
		map[string]interface{}{"endpoint_id": endpointID, "id": deploymentID},
		[]string{"index_id"})
	if err != nil {
		return "", err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var indexID string
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&indexID); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("deployment %s not found on endpoint %s", deploymentID, endpointID)
		}
		return "", err
	}
	return indexID, nil
}
