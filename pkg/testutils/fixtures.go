package testutils

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// InsertUser creates an active user with the named role. Passwords are hashed
// with the minimum bcrypt cost.
func InsertUser(ctx context.Context, db bun.IDB, roleName, username, password string) (*models.User, error) {
	role := &models.Role{}
	err := db.NewSelect().
		Model(role).
		Where("name = ?", roleName).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get role %q", roleName)
	}

	hashedPassword, err := auth.HashPasswordWithCost(password, bcrypt.MinCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		PasswordHash: hashedPassword,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if _, err := db.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}

	user.Role = role
	err = db.NewSelect().
		Model(&role.Permissions).
		Where("role_id = ?", role.ID).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load permissions")
	}
	return user, nil
}

// InsertAuthor creates an author without dates.
func InsertAuthor(ctx context.Context, db bun.IDB, firstName, lastName string) (*models.Author, error) {
	now := time.Now()
	author := &models.Author{
		CreatedAt: now,
		UpdatedAt: now,
		FirstName: firstName,
		LastName:  lastName,
	}
	_, err := db.NewInsert().Model(author).Exec(ctx)
	return author, errors.Wrap(err, "failed to create author")
}

// InsertLanguage creates a language.
func InsertLanguage(ctx context.Context, db bun.IDB, name string) (*models.Language, error) {
	now := time.Now()
	lang := &models.Language{
		CreatedAt: now,
		UpdatedAt: now,
		Name:      &name,
	}
	_, err := db.NewInsert().Model(lang).Exec(ctx)
	return lang, errors.Wrap(err, "failed to create language")
}

// InsertGenre creates a genre.
func InsertGenre(ctx context.Context, db bun.IDB, name string) (*models.Genre, error) {
	now := time.Now()
	genre := &models.Genre{
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
	}
	_, err := db.NewInsert().Model(genre).Exec(ctx)
	return genre, errors.Wrap(err, "failed to create genre")
}

// InsertBook creates a book tagged with the given genres.
func InsertBook(ctx context.Context, db bun.IDB, book *models.Book, genreIDs ...int) (*models.Book, error) {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now
	if _, err := db.NewInsert().Model(book).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to create book")
	}
	for _, genreID := range genreIDs {
		bg := &models.BookGenre{BookID: book.ID, GenreID: genreID}
		if _, err := db.NewInsert().Model(bg).Exec(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to tag book")
		}
	}
	return book, nil
}

// InsertInstance creates a copy of a book. A nil borrower leaves the copy
// unassigned.
func InsertInstance(ctx context.Context, db bun.IDB, bookID int, status string, dueBack *time.Time, borrower *models.User) (*models.BookInstance, error) {
	now := time.Now()
	instance := &models.BookInstance{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		BookID:    bookID,
		Imprint:   "Test Imprint",
		DueBack:   dueBack,
		Status:    status,
	}
	if borrower != nil {
		instance.BorrowerID = &borrower.ID
	}
	_, err := db.NewInsert().Model(instance).Exec(ctx)
	return instance, errors.Wrap(err, "failed to create book instance")
}
