package cart

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	repo := setupTestDB(t)

	line := domain.CartLine{
		Book:     domain.Book{ID: "b1", Title: "Dune", Price: 20, Stock: 3},
		Quantity: 2,
		OwnerID:  "u1",
		AddedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.SaveLine(line))
	require.NoError(t, repo.SaveOpen(true))

	lines, open, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, open)
	assert.Equal(t, "u1", lines[0].OwnerID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Dune", lines[0].Book.Title)
	assert.InDelta(t, 20, lines[0].Book.Price, 1e-9)
}

func TestSQLiteRepository_UpsertKeepsOneRow(t *testing.T) {
	repo := setupTestDB(t)

	line := domain.CartLine{
		Book:     domain.Book{ID: "b1", Price: 20},
		Quantity: 1,
		OwnerID:  "u1",
		AddedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.SaveLine(line))

	line.Quantity = 5
	require.NoError(t, repo.SaveLine(line))

	lines, _, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestSQLiteRepository_PreservesInsertionOrder(t *testing.T) {
	repo := setupTestDB(t)

	for _, id := range []string{"b3", "b1", "b2"} {
		require.NoError(t, repo.SaveLine(domain.CartLine{
			Book:     domain.Book{ID: id},
			Quantity: 1,
			OwnerID:  "u1",
			AddedAt:  time.Now().UTC(),
		}))
	}

	lines, _, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "b3", lines[0].Book.ID)
	assert.Equal(t, "b1", lines[1].Book.ID)
	assert.Equal(t, "b2", lines[2].Book.ID)
}

func TestSQLiteRepository_DeleteOwner(t *testing.T) {
	repo := setupTestDB(t)

	seed := []struct {
		owner, book string
	}{
		{"u1", "b1"},
		{"u1", "b2"},
		{"u2", "b1"},
	}
	for _, s := range seed {
		require.NoError(t, repo.SaveLine(domain.CartLine{
			Book:     domain.Book{ID: s.book},
			Quantity: 1,
			OwnerID:  s.owner,
			AddedAt:  time.Now().UTC(),
		}))
	}

	require.NoError(t, repo.DeleteOwner("u1"))

	lines, _, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "u2", lines[0].OwnerID)
}

func TestSQLiteRepository_TokenPersistence(t *testing.T) {
	repo := setupTestDB(t)

	token, err := repo.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, repo.SaveToken("access-token"))
	token, err = repo.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)

	require.NoError(t, repo.SaveToken(""))
	token, err = repo.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStore_SurvivesRestartOnSQLite(t *testing.T) {
	repo := setupTestDB(t)

	first, err := NewStore(repo)
	require.NoError(t, err)
	first.Add(domain.Book{ID: "b1", Title: "Dune", Price: 20, Stock: 3}, "u1")
	first.Add(domain.Book{ID: "b1", Title: "Dune", Price: 20, Stock: 3}, "u1")

	second, err := NewStore(repo)
	require.NoError(t, err)

	lines := second.Lines("u1")
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.InDelta(t, 40, second.Total("u1"), 1e-9)
}
