package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/ShortKey/internal/app/model"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

var (
	// ErrLinkNotFound signals that the requested link does not exist (or is
	// inactive, for lookups by public key).
	ErrLinkNotFound = errors.New("link not found")
	// ErrDuplicateKey signals that the public or secret key is already stored.
	ErrDuplicateKey = errors.New("duplicate link key")
)

// LinkRepository defines the data access contract for links.
type LinkRepository interface {
	// Create inserts link as active with zero clicks.
	Create(ctx context.Context, link *model.Link) error
	// GetByKey returns the active link with the given public key.
	GetByKey(ctx context.Context, key string) (*model.Link, error)
	// GetBySecretKey returns the link with the given secret key, active or not.
	GetBySecretKey(ctx context.Context, secretKey string) (*model.Link, error)
	// IncrementClicks adds one click to an active link and refreshes link.Clicks.
	IncrementClicks(ctx context.Context, link *model.Link) error
	// SetActive persists the activation flag.
	SetActive(ctx context.Context, link *model.Link, active bool) error
	// ListKeys returns every stored public key.
	ListKeys(ctx context.Context) ([]string, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	link.IsActive = true
	link.Clicks = 0
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *linkRepository) GetByKey(ctx context.Context, key string) (*model.Link, error) {
	var link model.Link
	err := r.db.WithContext(ctx).
		Where("short_key = ? AND is_active = ?", key, true).
		First(&link).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &link, nil
}

func (r *linkRepository) GetBySecretKey(ctx context.Context, secretKey string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("secret_key = ?", secretKey).First(&link).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &link, nil
}

// IncrementClicks runs the increment and the read-back in one transaction so
// concurrent redirects never lose a click. A link deactivated since it was
// loaded is reported as ErrLinkNotFound.
func (r *linkRepository) IncrementClicks(ctx context.Context, link *model.Link) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Link{}).
			Where("id = ? AND is_active = ?", link.ID, true).
			Update("clicks", gorm.Expr("clicks + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLinkNotFound
		}

		return tx.Model(&model.Link{}).
			Select("clicks").
			Where("id = ?", link.ID).
			Row().
			Scan(&link.Clicks)
	})
}

func (r *linkRepository) SetActive(ctx context.Context, link *model.Link, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ?", link.ID).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	link.IsActive = active
	return nil
}

func (r *linkRepository) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&model.Link{}).Pluck("short_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLinkNotFound
	}
	return err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
