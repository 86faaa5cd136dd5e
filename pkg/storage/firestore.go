package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

const (
	dailyCollection   = "daily_usage"
	monthlyCollection = "monthly_usage"
)

// FirestoreProvider implements the Database interface using Google Cloud Firestore.
// Each site has a daily_usage and a monthly_usage collection whose document
// IDs are the day or month so range queries can use the document ID.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) getCollection(siteID, name string) (*firestore.CollectionRef, error) {
	if err := checkSiteID(siteID); err != nil {
		return nil, err
	}
	return f.client.Collection("sites").Doc(siteID).Collection(name), nil
}

func (f *FirestoreProvider) setJSON(ctx context.Context, coll *firestore.CollectionRef, docID string, v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", docID, err)
	}
	_, err = coll.Doc(docID).Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", coll.ID, docID, err)
	}
	return nil
}

func decodeJSONDoc(ctx context.Context, doc *firestore.DocumentSnapshot, v any) error {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "doc missing json", slog.String("docID", doc.Ref.ID), slog.Any("err", err))
		return fmt.Errorf("document %s missing 'json' field: %w", doc.Ref.ID, err)
	}

	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "doc json not string", slog.String("docID", doc.Ref.ID))
		return fmt.Errorf("document %s 'json' field is not string", doc.Ref.ID)
	}

	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal doc", slog.String("docID", doc.Ref.ID), slog.Any("err", err))
		return fmt.Errorf("failed to unmarshal document (id=%s): %w", doc.Ref.ID, err)
	}
	return nil
}

// queryRange iterates documents with IDs in [start, end) in ID order.
func (f *FirestoreProvider) queryRange(ctx context.Context, coll *firestore.CollectionRef, start, end string, fn func(doc *firestore.DocumentSnapshot) error) error {
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(start)).
		Where(firestore.DocumentID, "<", coll.Doc(end)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error iterating %s: %w", coll.ID, err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

// UpsertDailyUsage stores each day as a JSON blob keyed by its date.
func (f *FirestoreProvider) UpsertDailyUsage(ctx context.Context, siteID string, days []types.DailyUsage) error {
	coll, err := f.getCollection(siteID, dailyCollection)
	if err != nil {
		return err
	}
	for _, day := range days {
		if err := f.setJSON(ctx, coll, day.Date.String(), day); err != nil {
			return err
		}
	}
	return nil
}

// GetDailyUsage retrieves the stored days in [start, end).
func (f *FirestoreProvider) GetDailyUsage(ctx context.Context, siteID string, start, end civil.Date) ([]types.DailyUsage, error) {
	coll, err := f.getCollection(siteID, dailyCollection)
	if err != nil {
		return nil, err
	}

	var days []types.DailyUsage
	err = f.queryRange(ctx, coll, start.String(), end.String(), func(doc *firestore.DocumentSnapshot) error {
		var day types.DailyUsage
		if err := decodeJSONDoc(ctx, doc, &day); err != nil {
			return err
		}
		days = append(days, day)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return days, nil
}

// UpsertMonthSummaries stores each month as a JSON blob keyed by its month.
func (f *FirestoreProvider) UpsertMonthSummaries(ctx context.Context, siteID string, months []types.MonthSummary) error {
	coll, err := f.getCollection(siteID, monthlyCollection)
	if err != nil {
		return err
	}
	for _, month := range months {
		if err := f.setJSON(ctx, coll, month.Month.String(), month); err != nil {
			return err
		}
	}
	return nil
}

// GetMonthSummaries retrieves the stored months in [start, end).
func (f *FirestoreProvider) GetMonthSummaries(ctx context.Context, siteID string, start, end types.MonthKey) ([]types.MonthSummary, error) {
	coll, err := f.getCollection(siteID, monthlyCollection)
	if err != nil {
		return nil, err
	}

	var months []types.MonthSummary
	err = f.queryRange(ctx, coll, start.String(), end.String(), func(doc *firestore.DocumentSnapshot) error {
		var month types.MonthSummary
		if err := decodeJSONDoc(ctx, doc, &month); err != nil {
			return err
		}
		months = append(months, month)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return months, nil
}

// GetMonthSummary retrieves a single stored month.
func (f *FirestoreProvider) GetMonthSummary(ctx context.Context, siteID string, month types.MonthKey) (types.MonthSummary, error) {
	coll, err := f.getCollection(siteID, monthlyCollection)
	if err != nil {
		return types.MonthSummary{}, err
	}
	doc, err := coll.Doc(month.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.MonthSummary{}, fmt.Errorf("month %s: %w", month, ErrNotFound)
		}
		return types.MonthSummary{}, fmt.Errorf("failed to fetch month doc: %w", err)
	}

	var summary types.MonthSummary
	if err := decodeJSONDoc(ctx, doc, &summary); err != nil {
		return types.MonthSummary{}, err
	}
	return summary, nil
}
