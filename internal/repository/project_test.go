package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markjakearzadon/projectpay-gobackend/internal/db"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
)

// testDatabase connects to TEST_MONGOURI and returns a throwaway database.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGOURI")
	if uri == "" {
		t.Skip("TEST_MONGOURI not set")
	}
	ctx := context.Background()
	client, err := db.Connect(ctx, uri)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	database := client.Database("projectpay_test_" + primitive.NewObjectID().Hex())
	if err := db.EnsureIndexes(ctx, database); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	t.Cleanup(func() {
		database.Drop(context.Background())
		client.Disconnect(context.Background())
	})
	return database
}

func TestMarkPaidTransitionsOnce(t *testing.T) {
	repo := NewProjectRepository(testDatabase(t))
	ctx := context.Background()

	project := &models.Project{Name: "Site", OrderID: "ORD-1", ClientID: primitive.NewObjectID(), Amount: 10, PaymentStatus: models.StatusPending}
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var mu sync.Mutex
	transitions := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, transitioned, err := repo.MarkPaid(ctx, "ORD-1", time.Now())
			if err != nil {
				t.Errorf("MarkPaid: %v", err)
				return
			}
			if transitioned {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if transitions != 1 {
		t.Errorf("%d transitions, want 1", transitions)
	}
	got, err := repo.GetByOrderID(ctx, "ORD-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != models.StatusPaid || got.PaidAt == nil {
		t.Errorf("stored project = %+v", got)
	}

	if _, _, err := repo.MarkPaid(ctx, "ORD-404", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown order err = %v, want ErrNotFound", err)
	}
}

func TestCreateRejectsDuplicateOrderID(t *testing.T) {
	repo := NewProjectRepository(testDatabase(t))
	ctx := context.Background()

	first := &models.Project{Name: "A", OrderID: "ORD-DUP", PaymentStatus: models.StatusPending}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &models.Project{Name: "B", OrderID: "ORD-DUP", PaymentStatus: models.StatusPending}
	if err := repo.Create(ctx, second); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestSettingsUpsertMerges(t *testing.T) {
	repo := NewSettingsRepository(testDatabase(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, "bkash", map[string]string{"app_key": "a", "username": "u"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Upsert(ctx, "bkash", map[string]string{"app_key": "b"}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, "bkash")
	if err != nil {
		t.Fatal(err)
	}
	if got.Values["app_key"] != "b" || got.Values["username"] != "u" {
		t.Errorf("values = %v", got.Values)
	}
}

func TestUpdateLeavesPaymentStatusAlone(t *testing.T) {
	repo := NewProjectRepository(testDatabase(t))
	ctx := context.Background()

	project := &models.Project{Name: "Site", OrderID: "ORD-E", PaymentStatus: models.StatusPending}
	if err := repo.Create(ctx, project); err != nil {
		t.Fatal(err)
	}
	if _, _, err := repo.MarkPaid(ctx, "ORD-E", time.Now()); err != nil {
		t.Fatal(err)
	}

	name := "Site v2"
	updated, err := repo.Update(ctx, project.ID, models.ProjectChanges{Name: &name, UpdatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != name || updated.PaymentStatus != models.StatusPaid {
		t.Errorf("updated = %+v", updated)
	}

	pending := models.StatusPending
	if _, err := repo.Update(ctx, project.ID, models.ProjectChanges{PaymentStatus: &pending, UpdatedAt: time.Now()}); !errors.Is(err, ErrPaidLocked) {
		t.Errorf("err = %v, want ErrPaidLocked", err)
	}
	if _, err := repo.Update(ctx, primitive.NewObjectID(), models.ProjectChanges{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project err = %v, want ErrNotFound", err)
	}
}
