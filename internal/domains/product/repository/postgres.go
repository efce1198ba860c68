package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace-backend/internal/domains/product/model"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/shared/utils"
	pgtx "marketplace-backend/pkg/database"
)

const creatorFKConstraint = "products_creator_id_fkey"

const productColumns = `p.id, p.title, p.description, p.price, p.image_url, p.file_url, p.creator_id, p.created_at, p.updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func productFields(p *model.Product) []any {
	return []any{
		&p.ID, &p.Title, &p.Description, &p.Price,
		&p.ImageURL, &p.FileURL, &p.CreatorID,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func scanListItem(row pgx.CollectableRow) (model.ProductListItem, error) {
	var item model.ProductListItem
	dest := append(productFields(&item.Product),
		&item.Creator.ID, &item.Creator.Name, &item.Creator.Email,
	)
	err := row.Scan(dest...)
	return item, err
}

// ========================================
// CRUD
// ========================================

func (r *postgresRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (title, description, price, image_url, file_url, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		p.Title, p.Description, p.Price, p.ImageURL, p.FileURL, p.CreatorID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err, creatorFKConstraint) {
			return fmt.Errorf("creator %s does not exist: %w", p.CreatorID, err)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	var p model.Product
	if err := r.pool.QueryRow(ctx, query, id).Scan(productFields(&p)...); err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return &p, nil
}

// Update ghi đè toàn bộ mutable fields; creator_id không đổi
func (r *postgresRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET title = $1, description = $2, price = $3,
		    image_url = $4, file_url = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		p.Title, p.Description, p.Price, p.ImageURL, p.FileURL, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return model.ErrProductNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// ========================================
// READ VIEWS
// ========================================

func (r *postgresRepository) FindDetailByID(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error) {
	query := `
		SELECT ` + productColumns + `,
		       u.id, u.name, u.email, u.bio, u.store_name, u.profile_image
		FROM products p
		JOIN users u ON u.id = p.creator_id
		WHERE p.id = $1
	`
	var d model.ProductDetail
	dest := append(productFields(&d.Product),
		&d.Creator.ID, &d.Creator.Name, &d.Creator.Email,
		&d.Creator.Bio, &d.Creator.StoreName, &d.Creator.ProfileImage,
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product detail: %w", err)
	}
	return &d, nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.ProductListItem, int, error) {
	var (
		conditions []string
		args       []any
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, utils.EscapeLike(q))
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	where := utils.JoinWithAnd(conditions)

	args = append(args, filter.Limit, filter.Offset)
	countQuery := `SELECT COUNT(*) FROM products p WHERE ` + where
	query := fmt.Sprintf(`
		SELECT %s, u.id, u.name, u.email
		FROM products p
		JOIN users u ON u.id = p.creator_id
		WHERE %s
		ORDER BY p.created_at DESC, p.id
		LIMIT $%d OFFSET $%d
	`, productColumns, where, len(args)-1, len(args))

	type page struct {
		items []model.ProductListItem
		total int
	}
	// COUNT và page đọc trên cùng snapshot
	res, err := pgtx.WithSnapshot(ctx, r.pool, func(tx pgx.Tx) (page, error) {
		var p page
		if err := tx.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&p.total); err != nil {
			return p, fmt.Errorf("count products: %w", err)
		}
		if p.total == 0 {
			p.items = []model.ProductListItem{}
			return p, nil
		}

		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return p, fmt.Errorf("list products: %w", err)
		}
		if p.items, err = pgx.CollectRows(rows, scanListItem); err != nil {
			return p, fmt.Errorf("scan products: %w", err)
		}
		return p, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.items, res.total, nil
}

func (r *postgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.ProductListItem, error) {
	query := `
		SELECT ` + productColumns + `, u.id, u.name, u.email
		FROM products p
		JOIN users u ON u.id = p.creator_id
		WHERE p.creator_id = $1
		ORDER BY p.created_at DESC, p.id
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list products by owner: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanListItem)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) ListAssetRefs(ctx context.Context) ([]string, error) {
	query := `
		SELECT image_url FROM products
		UNION
		SELECT file_url FROM products WHERE file_url <> ''
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list product asset refs: %w", err)
	}
	refs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan product asset refs: %w", err)
	}
	return refs, nil
}

func (r *postgresRepository) HasImageRef(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE image_url = $1)`, ref).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product image ref: %w", err)
	}
	return exists, nil
}
