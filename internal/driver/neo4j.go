package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/agenthands/loubot/internal/driver")

type Options struct {
	Database       string
	MaxPoolSize    int
	ConnectTimeout time.Duration
	// QueryTimeout bounds every ExecuteQuery call. Zero disables the bound.
	QueryTimeout time.Duration
}

type Neo4jDriver struct {
	Driver neo4j.DriverWithContext
	opts   Options
	logger *zap.Logger
}

func NewNeo4jDriver(uri, username, password string, opts Options, logger *zap.Logger) (*Neo4jDriver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""), func(cfg *neo4j.Config) {
		if opts.MaxPoolSize > 0 {
			cfg.MaxConnectionPoolSize = opts.MaxPoolSize
		}
		if opts.ConnectTimeout > 0 {
			cfg.SocketConnectTimeout = opts.ConnectTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	nd := &Neo4jDriver{Driver: d, opts: opts, logger: logger.Named("neo4j")}
	if err := nd.VerifyConnectivity(context.Background()); err != nil {
		_ = d.Close(context.Background())
		return nil, err
	}

	nd.logger.Info("Connected to Neo4j", zap.String("uri", uri))
	return nd, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	if d.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.ConnectTimeout)
		defer cancel()
	}
	if err := d.Driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to verify connectivity: %w", err)
	}
	return nil
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	ctx, span := tracer.Start(ctx, "neo4j.ExecuteQuery")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "neo4j"))

	if d.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.QueryTimeout)
		defer cancel()
	}

	var settings []neo4j.ExecuteQueryConfigurationOption
	if d.opts.Database != "" {
		settings = append(settings, neo4j.ExecuteQueryWithDatabase(d.opts.Database))
	}

	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer, settings...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX person_session_name IF NOT EXISTS FOR (n:Person) ON (n.uid, n.full_name)",
		"CREATE INDEX attribute_session IF NOT EXISTS FOR (n:Attribute) ON (n.uid)",
		"CREATE INDEX session_history_name IF NOT EXISTS FOR (n:SessionHistory) ON (n.uid, n.name)",
		"CREATE INDEX chat_history_session IF NOT EXISTS FOR (n:ChatHistory) ON (n.uid)",
		"CREATE INDEX episode_part_session IF NOT EXISTS FOR (n:EpisodePart) ON (n.uid)",
		"CREATE INDEX social_network_name IF NOT EXISTS FOR (n:SocialNetwork) ON (n.uid, n.name)",
		"CREATE INDEX account_email IF NOT EXISTS FOR (n:Account) ON (n.email)",
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Index may already exist under another name.
			d.logger.Warn("failed to create index", zap.String("query", q), zap.Error(err))
		}
	}

	return nil
}
