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

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, establishment_id, user_id, numero, data, subtotal, desconto, total,
	forma_pagamento, observacoes, status, sincronizado, created_at, updated_at`

// SaleRepo implementación del puerto SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de persistencia para ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta con sus items. Con un Querier transaccional, todo
// confirma o revierte junto.
func (r *SaleRepo) Create(sale *entity.Sale) error {
	ctx := context.Background()
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		sale.ID, sale.EstablishmentID, sale.UserID, sale.Numero, sale.Data,
		sale.Subtotal, sale.Desconto, sale.Total, sale.FormaPagamento, sale.Observacoes,
		sale.Status, sale.Sincronizado, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	for _, it := range sale.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, product_id, quantidade, preco_unitario, subtotal, desconto)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, sale.ID, it.ProductID, it.Quantidade, it.PrecoUnitario, it.Subtotal, it.Desconto,
		)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una venta del establecimiento con sus items.
func (r *SaleRepo) GetByID(id, establishmentID string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 AND establishment_id = $2`
	sale, err := scanSale(r.q.QueryRow(context.Background(), query, id, establishmentID))
	if err != nil || sale == nil {
		return sale, err
	}
	if err := r.loadItems(sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// GetByEstablishmentAndNumero obtiene una venta por su clave natural de sincronización.
func (r *SaleRepo) GetByEstablishmentAndNumero(establishmentID string, numero int64) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE establishment_id = $1 AND numero = $2`
	sale, err := scanSale(r.q.QueryRow(context.Background(), query, establishmentID, numero))
	if err != nil || sale == nil {
		return sale, err
	}
	if err := r.loadItems(sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// NextNumero devuelve el siguiente consecutivo de venta del establecimiento.
func (r *SaleRepo) NextNumero(establishmentID string) (int64, error) {
	var numero int64
	err := r.q.QueryRow(context.Background(),
		`SELECT coalesce(max(numero), 0) + 1 FROM sales WHERE establishment_id = $1`,
		establishmentID,
	).Scan(&numero)
	if err != nil {
		return 0, fmt.Errorf("next sale numero: %w", err)
	}
	return numero, nil
}

// UpdateStatus cambia el estado de una venta.
func (r *SaleRepo) UpdateStatus(id, status string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE sales SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	return nil
}

// ListByEstablishment lista ventas del establecimiento con paginación, más recientes primero.
func (r *SaleRepo) ListByEstablishment(establishmentID string, limit, offset int) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + `
		FROM sales WHERE establishment_id = $1 ORDER BY data DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, establishmentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	list, err := scanSales(rows)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		if err := r.loadItems(s); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ListUpdatedSince devuelve ventas con updated_at estrictamente mayor a since,
// ordenadas ascendentemente. El orden sostiene la reanudación del pull incremental.
func (r *SaleRepo) ListUpdatedSince(establishmentID string, since time.Time) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + `
		FROM sales WHERE establishment_id = $1 AND updated_at > $2 ORDER BY updated_at ASC`
	rows, err := r.q.Query(context.Background(), query, establishmentID, since)
	if err != nil {
		return nil, fmt.Errorf("list sales since: %w", err)
	}
	defer rows.Close()
	list, err := scanSales(rows)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		if err := r.loadItems(s); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// LastUpdatedAt devuelve el updated_at más reciente del establecimiento (nil si no hay ventas).
func (r *SaleRepo) LastUpdatedAt(establishmentID string) (*time.Time, error) {
	var last *time.Time
	err := r.q.QueryRow(context.Background(),
		`SELECT max(updated_at) FROM sales WHERE establishment_id = $1`,
		establishmentID,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("last sale update: %w", err)
	}
	return last, nil
}

// CountUnsynced cuenta ventas con sincronizado = false.
func (r *SaleRepo) CountUnsynced(establishmentID string) (int, error) {
	var count int
	err := r.q.QueryRow(context.Background(),
		`SELECT count(*) FROM sales WHERE establishment_id = $1 AND sincronizado = false`,
		establishmentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unsynced sales: %w", err)
	}
	return count, nil
}

func (r *SaleRepo) loadItems(sale *entity.Sale) error {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, sale_id, product_id, quantidade, preco_unitario, subtotal, desconto
		FROM sale_items WHERE sale_id = $1`,
		sale.ID,
	)
	if err != nil {
		return fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	var items []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantidade, &it.PrecoUnitario, &it.Subtotal, &it.Desconto); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, it)
	}
	sale.Items = items
	return rows.Err()
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(
		&s.ID, &s.EstablishmentID, &s.UserID, &s.Numero, &s.Data, &s.Subtotal, &s.Desconto,
		&s.Total, &s.FormaPagamento, &s.Observacoes, &s.Status, &s.Sincronizado,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	return &s, nil
}

func scanSales(rows pgx.Rows) ([]*entity.Sale, error) {
	var list []*entity.Sale
	for rows.Next() {
		var s entity.Sale
		if err := rows.Scan(
			&s.ID, &s.EstablishmentID, &s.UserID, &s.Numero, &s.Data, &s.Subtotal, &s.Desconto,
			&s.Total, &s.FormaPagamento, &s.Observacoes, &s.Status, &s.Sincronizado,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
