package ephemeraltokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	upsertQ  = `(?s)^INSERT\s+INTO\s+ephemeral_tokens.*ON\s+CONFLICT\s+\(user_id,\s*kind\)\s+DO\s+UPDATE.*WHERE\s+ephemeral_tokens\.expires_at\s*<=\s*\$5\s+RETURNING\s+token\s*$`
	liveQ    = `(?s)^SELECT\s+token,\s*expires_at\s+FROM\s+ephemeral_tokens\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+kind\s*=\s*\$2$`
	consumeQ = `(?s)^DELETE\s+FROM\s+ephemeral_tokens\s+WHERE\s+token\s*=\s*\$1\s+AND\s+kind\s*=\s*\$2\s+AND\s+expires_at\s*>\s*\$3\s+RETURNING\s+user_id,\s*expires_at\s*$`
	findQ    = `(?s)^SELECT\s+user_id,\s*expires_at\s+FROM\s+ephemeral_tokens\s+WHERE\s+token\s*=\s*\$1\s+AND\s+kind\s*=\s*\$2\s*$`
)

func TestIssue_Stored(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	exp := now.Add(15 * time.Minute)
	mock.ExpectQuery(upsertQ).
		WithArgs("u-1", "verification", "tok", exp, now).
		WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow("tok"))

	issued, live, err := repo.Issue(context.Background(),
		&models.EphemeralToken{UserID: "u-1", Kind: models.TokenKindVerification, Value: "tok", ExpiresAt: exp}, now)
	if err != nil || !issued || live != nil {
		t.Fatalf("Issue = %v, %+v, %v", issued, live, err)
	}
}

func TestIssue_LiveTokenExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	liveExp := now.Add(10 * time.Minute)
	mock.ExpectQuery(upsertQ).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(liveQ).
		WithArgs("u-1", "reset").
		WillReturnRows(sqlmock.NewRows([]string{"token", "expires_at"}).AddRow("old", liveExp))

	issued, live, err := repo.Issue(context.Background(),
		&models.EphemeralToken{UserID: "u-1", Kind: models.TokenKindReset, Value: "new", ExpiresAt: now.Add(time.Hour)}, now)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if issued {
		t.Fatalf("expected refusal while a live token exists")
	}
	if live.Value != "old" || !live.ExpiresAt.Equal(liveExp) {
		t.Fatalf("unexpected live token: %+v", live)
	}
}

func TestIssue_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(upsertQ).WillReturnError(errors.New("db down"))

	_, _, err := repo.Issue(context.Background(), &models.EphemeralToken{Kind: models.TokenKindReset}, time.Now())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestConsume_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	exp := now.Add(time.Minute)
	mock.ExpectQuery(consumeQ).
		WithArgs("tok", "verification", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).AddRow("u-1", exp))

	got, err := repo.Consume(context.Background(), models.TokenKindVerification, "tok", now)
	if err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	if got.UserID != "u-1" {
		t.Fatalf("unexpected token: %+v", got)
	}
}

func TestConsume_Expired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(consumeQ).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(findQ).
		WithArgs("tok", "verification").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).AddRow("u-1", now.Add(-time.Minute)))

	_, err := repo.Consume(context.Background(), models.TokenKindVerification, "tok", now)
	if !errors.Is(err, common.ErrEphemeralTokenExpired) {
		t.Fatalf("want ErrEphemeralTokenExpired, got %v", err)
	}
}

func TestConsume_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(consumeQ).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(findQ).WillReturnError(sql.ErrNoRows)

	_, err := repo.Consume(context.Background(), models.TokenKindReset, "nope", time.Now())
	if !errors.Is(err, common.ErrEphemeralTokenNotFound) {
		t.Fatalf("want ErrEphemeralTokenNotFound, got %v", err)
	}
}
