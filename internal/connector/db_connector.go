package connector

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/scanerr"
)

// QueryExecutor runs a read query and returns its rows keyed by column name
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error)
}

// DatabaseConnector handles the database connection and hands out scan sessions
type DatabaseConnector struct {
	Host     string
	User     string
	Password string
	Database string
	Port     string
	Dialect  dialect.Dialect
	DB       *sql.DB
	Logger   *logrus.Logger
}

// NewDatabaseConnector creates a new database connector, filling empty
// host, user and port with the dialect's defaults
func NewDatabaseConnector(host, user, password, database, port string, d dialect.Dialect, logger *logrus.Logger) *DatabaseConnector {
	if host == "" {
		host = "localhost"
	}
	if user == "" {
		user = d.DefaultUser()
	}
	if port == "" {
		port = d.DefaultPort()
	}

	return &DatabaseConnector{
		Host:     host,
		User:     user,
		Password: password,
		Database: database,
		Port:     port,
		Dialect:  d,
		Logger:   logger,
	}
}

// Connect establishes a connection to the database
func (dc *DatabaseConnector) Connect(ctx context.Context) error {
	if dc.Database == "" {
		return scanerr.NewConnectionError(dc.Database, errors.New("database name must be provided"))
	}

	dsn := dc.Dialect.DSN(dialect.ConnectionParams{
		Host:     dc.Host,
		Port:     dc.Port,
		Database: dc.Database,
		User:     dc.User,
		Password: dc.Password,
	})
	db, err := sql.Open(dc.Dialect.DriverName(), dsn)
	if err != nil {
		dc.Logger.Errorf("Error opening %s database: %v", dc.Dialect.Name(), err)
		return scanerr.NewConnectionError(dc.Database, err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		dc.Logger.Errorf("Error pinging %s database: %v", dc.Dialect.Name(), err)
		_ = db.Close()
		return scanerr.NewConnectionError(dc.Database, err)
	}

	dc.DB = db
	dc.Logger.Infof("Connected to %s database: %s", dc.Dialect.Name(), dc.Database)
	return nil
}

// Disconnect closes the database connection
func (dc *DatabaseConnector) Disconnect() {
	if dc.DB != nil {
		err := dc.DB.Close()
		if err != nil {
			dc.Logger.Errorf("Error closing database connection: %v", err)
		} else {
			dc.Logger.Infof("%s connection closed", dc.Dialect.Name())
		}
	}
}

// OpenSession starts a read-only transaction on its own pooled connection.
// The caller must Close the session.
func (dc *DatabaseConnector) OpenSession(ctx context.Context) (*Session, error) {
	if dc.DB == nil {
		if err := dc.Connect(ctx); err != nil {
			return nil, err
		}
	}

	tx, err := dc.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		dc.Logger.Errorf("Error starting read-only transaction: %v", err)
		return nil, scanerr.NewConnectionError(dc.Database, err)
	}

	return NewSession(tx, dc.Dialect, dc.Logger), nil
}
