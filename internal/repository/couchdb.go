package repository

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
)

const (
	docTypeUser     = "user"
	docTypeUsername = "username"
	docTypeBlog     = "blog"

	// Mango queries default to 25 rows.
	findLimit = 10000

	maxConflictRetries = 10
)

// ConnectCouchDB opens the CouchDB client, creates dbName when missing and
// makes sure the Mango indexes used by the repositories exist.
func ConnectCouchDB(ctx context.Context, couchURL, dbName string) (*kivik.Client, error) {
	client, err := kivik.New("couch", couchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		log.Printf("Created database: %s", dbName)
	}

	db := client.DB(dbName)
	indexes := map[string][]string{
		"by-doc-type":     {"doc_type"},
		"blogs-by-author": {"doc_type", "author"},
	}
	for name, fields := range indexes {
		index := map[string]interface{}{"fields": fields}
		if err := db.CreateIndex(ctx, "bloglist", name, index); err != nil {
			return nil, fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}

	return client, nil
}

func trimDocPrefix(docID, docType string) string {
	return strings.TrimPrefix(docID, docType+":")
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
