//go:build integration

package integration

import (
	"fmt"
	"os"
	"testing"
)

func pgDSN(t *testing.T) string {
	t.Helper()
	host := envOrDefault("SCHEMALENS_TEST_PG_HOST", "localhost")
	port := envOrDefault("SCHEMALENS_TEST_PG_PORT", "25432")
	db := envOrDefault("SCHEMALENS_TEST_PG_DATABASE", "schemalens_test")
	user := envOrDefault("SCHEMALENS_TEST_PG_USER", "postgres")
	pass := envOrDefault("SCHEMALENS_TEST_PG_PASSWORD", "postgres")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, db)
}

func mysqlDSN(t *testing.T) string {
	t.Helper()
	host := envOrDefault("SCHEMALENS_TEST_MYSQL_HOST", "localhost")
	port := envOrDefault("SCHEMALENS_TEST_MYSQL_PORT", "23306")
	db := envOrDefault("SCHEMALENS_TEST_MYSQL_DATABASE", "schemalens_test")
	user := envOrDefault("SCHEMALENS_TEST_MYSQL_USER", "root")
	pass := envOrDefault("SCHEMALENS_TEST_MYSQL_PASSWORD", "root")
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, pass, host, port, db)
}

func mongoURI(t *testing.T) string {
	t.Helper()
	return envOrDefault("SCHEMALENS_TEST_MONGO_URI", "mongodb://localhost:37017/?directConnection=true")
}

func mongoDatabase(t *testing.T) string {
	t.Helper()
	return envOrDefault("SCHEMALENS_TEST_MONGO_DATABASE", "schemalens_test")
}

func skipIfNoPostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("SCHEMALENS_TEST_PG_HOST") == "" && os.Getenv("SCHEMALENS_TEST_PG_PORT") == "" {
		t.Skip("skipping: SCHEMALENS_TEST_PG_HOST/PORT not set")
	}
}

func skipIfNoMySQL(t *testing.T) {
	t.Helper()
	if os.Getenv("SCHEMALENS_TEST_MYSQL_HOST") == "" && os.Getenv("SCHEMALENS_TEST_MYSQL_PORT") == "" {
		t.Skip("skipping: SCHEMALENS_TEST_MYSQL_HOST/PORT not set")
	}
}

func skipIfNoMongo(t *testing.T) {
	t.Helper()
	if os.Getenv("SCHEMALENS_TEST_MONGO_URI") == "" {
		t.Skip("skipping: SCHEMALENS_TEST_MONGO_URI not set")
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
