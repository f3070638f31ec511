package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, establishment_id, codigo, ean, nome, descricao, categoria, unidade,
	preco_custo, preco_venda, estoque, estoque_minimo, ncm, cest, cfop, ativo, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.EstablishmentID, product.Codigo, product.EAN, product.Nome,
		product.Descricao, product.Categoria, product.Unidade, product.PrecoCusto, product.PrecoVenda,
		product.Estoque, product.EstoqueMinimo, product.NCM, product.CEST, product.CFOP,
		product.Ativo, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	row := r.q.QueryRow(context.Background(), query, id)
	return scanProduct(row)
}

// GetByEstablishmentAndCodigo obtiene un producto por su clave natural de sincronización.
func (r *ProductRepo) GetByEstablishmentAndCodigo(establishmentID, codigo string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE establishment_id = $1 AND codigo = $2`
	row := r.q.QueryRow(context.Background(), query, establishmentID, codigo)
	return scanProduct(row)
}

// Update actualiza un producto existente.
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE products SET ean = $2, nome = $3, descricao = $4, categoria = $5, unidade = $6,
			preco_custo = $7, preco_venda = $8, estoque = $9, estoque_minimo = $10,
			ncm = $11, cest = $12, cfop = $13, ativo = $14, updated_at = $15
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.EAN, product.Nome, product.Descricao, product.Categoria,
		product.Unidade, product.PrecoCusto, product.PrecoVenda, product.Estoque,
		product.EstoqueMinimo, product.NCM, product.CEST, product.CFOP, product.Ativo,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// AdjustEstoque suma delta al stock (negativo para descontar).
func (r *ProductRepo) AdjustEstoque(productID string, delta int) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE products SET estoque = estoque + $2, updated_at = now() WHERE id = $1`,
		productID, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust estoque: %w", err)
	}
	return nil
}

// ListByEstablishment lista productos del establecimiento con paginación.
func (r *ProductRepo) ListByEstablishment(establishmentID string, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products WHERE establishment_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, establishmentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListUpdatedSince devuelve productos con updated_at estrictamente mayor a since,
// ordenados ascendentemente. El orden sostiene la reanudación del pull incremental.
func (r *ProductRepo) ListUpdatedSince(establishmentID string, since time.Time) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products WHERE establishment_id = $1 AND updated_at > $2 ORDER BY updated_at ASC`
	rows, err := r.q.Query(context.Background(), query, establishmentID, since)
	if err != nil {
		return nil, fmt.Errorf("list products since: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// LastUpdatedAt devuelve el updated_at más reciente del establecimiento (nil si no hay productos).
func (r *ProductRepo) LastUpdatedAt(establishmentID string) (*time.Time, error) {
	var last *time.Time
	err := r.q.QueryRow(context.Background(),
		`SELECT max(updated_at) FROM products WHERE establishment_id = $1`,
		establishmentID,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("last product update: %w", err)
	}
	return last, nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.EstablishmentID, &p.Codigo, &p.EAN, &p.Nome, &p.Descricao, &p.Categoria,
		&p.Unidade, &p.PrecoCusto, &p.PrecoVenda, &p.Estoque, &p.EstoqueMinimo,
		&p.NCM, &p.CEST, &p.CFOP, &p.Ativo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]*entity.Product, error) {
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(
			&p.ID, &p.EstablishmentID, &p.Codigo, &p.EAN, &p.Nome, &p.Descricao, &p.Categoria,
			&p.Unidade, &p.PrecoCusto, &p.PrecoVenda, &p.Estoque, &p.EstoqueMinimo,
			&p.NCM, &p.CEST, &p.CFOP, &p.Ativo, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
