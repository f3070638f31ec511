// Package sqlite implementa el almacenamiento local del agente PDV: el caché
// de productos y ventas del terminal, la cola de sincronización pendiente y
// las marcas de agua del pull incremental. SQLite embebido con WAL.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
)

// Claves de marca de agua del pull incremental.
const (
	WatermarkProducts = "products_pull"
	WatermarkSales    = "sales_pull"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id             TEXT PRIMARY KEY,
	codigo         TEXT NOT NULL UNIQUE,
	ean            TEXT NOT NULL DEFAULT '',
	nome           TEXT NOT NULL,
	descricao      TEXT NOT NULL DEFAULT '',
	categoria      TEXT NOT NULL DEFAULT '',
	unidade        TEXT NOT NULL DEFAULT 'UN',
	preco_custo    TEXT NOT NULL DEFAULT '0',
	preco_venda    TEXT NOT NULL DEFAULT '0',
	estoque        INTEGER NOT NULL DEFAULT 0,
	estoque_minimo INTEGER NOT NULL DEFAULT 0,
	ncm            TEXT NOT NULL DEFAULT '',
	cest           TEXT NOT NULL DEFAULT '',
	cfop           TEXT NOT NULL DEFAULT '',
	ativo          INTEGER NOT NULL DEFAULT 1,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_updated_at ON products(updated_at);

CREATE TABLE IF NOT EXISTS sales (
	id              TEXT PRIMARY KEY,
	numero          INTEGER NOT NULL UNIQUE,
	data            TEXT NOT NULL,
	subtotal        TEXT NOT NULL,
	desconto        TEXT NOT NULL DEFAULT '0',
	total           TEXT NOT NULL,
	forma_pagamento TEXT NOT NULL,
	observacoes     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	sincronizado    INTEGER NOT NULL DEFAULT 0,
	items_json      TEXT NOT NULL DEFAULT '[]',
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_queue (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_type TEXT NOT NULL,
	action      TEXT NOT NULL,
	payload     TEXT NOT NULL,
	synced      INTEGER NOT NULL DEFAULT 0,
	retry_count INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_queue_pending ON sync_queue(synced, entity_type);

CREATE TABLE IF NOT EXISTS sync_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store base SQLite local del terminal.
type Store struct {
	conn *sql.DB
	path string
}

// Open abre (o crea) la base local en path y aplica el esquema.
// El caller debe llamar Close() al terminar.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de la base: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("abrir base local: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping base local: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	// WAL permite lecturas concurrentes mientras el sync escribe
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("aplicar esquema local: %w", err)
	}
	return s, nil
}

// Close cierra la conexión con checkpoint del WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	_, _ = s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.conn.Close()
}

// ──────────────────────────────────────────────────────────────────────────────
// Productos
// ──────────────────────────────────────────────────────────────────────────────

// UpsertProduct guarda o reemplaza un producto por su código. Lo usa el pull
// para aplicar las versiones que llegan del servidor.
func (s *Store) UpsertProduct(p *entity.Product) error {
	_, err := s.conn.Exec(`
		INSERT INTO products (id, codigo, ean, nome, descricao, categoria, unidade,
			preco_custo, preco_venda, estoque, estoque_minimo, ncm, cest, cfop, ativo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(codigo) DO UPDATE SET
			ean = excluded.ean, nome = excluded.nome, descricao = excluded.descricao,
			categoria = excluded.categoria, unidade = excluded.unidade,
			preco_custo = excluded.preco_custo, preco_venda = excluded.preco_venda,
			estoque = excluded.estoque, estoque_minimo = excluded.estoque_minimo,
			ncm = excluded.ncm, cest = excluded.cest, cfop = excluded.cfop,
			ativo = excluded.ativo, updated_at = excluded.updated_at`,
		p.ID, p.Codigo, p.EAN, p.Nome, p.Descricao, p.Categoria, p.Unidade,
		p.PrecoCusto.String(), p.PrecoVenda.String(), p.Estoque, p.EstoqueMinimo,
		p.NCM, p.CEST, p.CFOP, boolToInt(p.Ativo),
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert product local: %w", err)
	}
	return nil
}

// CountProducts devuelve el total de productos en el caché local.
func (s *Store) CountProducts() (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products local: %w", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

// SaveSale guarda una venta en el caché local. Idempotente por numero.
func (s *Store) SaveSale(sale *entity.Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("serializar items: %w", err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO sales (id, numero, data, subtotal, desconto, total, forma_pagamento,
			observacoes, status, sincronizado, items_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(numero) DO UPDATE SET
			status = excluded.status, sincronizado = excluded.sincronizado,
			updated_at = excluded.updated_at`,
		sale.ID, sale.Numero, sale.Data.Format(time.RFC3339Nano),
		sale.Subtotal.String(), sale.Desconto.String(), sale.Total.String(),
		sale.FormaPagamento, sale.Observacoes, sale.Status, boolToInt(sale.Sincronizado),
		string(items), sale.CreatedAt.Format(time.RFC3339Nano), sale.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save sale local: %w", err)
	}
	return nil
}

// MarkSaleSynced marca una venta local como confirmada por el servidor.
func (s *Store) MarkSaleSynced(numero int64) error {
	_, err := s.conn.Exec(`UPDATE sales SET sincronizado = 1 WHERE numero = ?`, numero)
	if err != nil {
		return fmt.Errorf("mark sale synced: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Cola de sincronización
// ──────────────────────────────────────────────────────────────────────────────

// Enqueue agrega una operación pendiente a la cola. El payload es el JSON de
// la entidad tal como se enviará al servidor.
func (s *Store) Enqueue(entityType, action, payload string) (int64, error) {
	now := time.Now().Format(time.RFC3339Nano)
	res, err := s.conn.Exec(`
		INSERT INTO sync_queue (entity_type, action, payload, synced, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, ?, ?)`,
		entityType, action, payload, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("enqueue id: %w", err)
	}
	return id, nil
}

// ListPending devuelve los items no sincronizados de un tipo, en orden de llegada.
func (s *Store) ListPending(entityType string) ([]*entity.SyncQueueItem, error) {
	rows, err := s.conn.Query(`
		SELECT id, entity_type, action, payload, synced, retry_count, created_at, updated_at
		FROM sync_queue WHERE synced = 0 AND entity_type = ? ORDER BY id ASC`,
		entityType,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var list []*entity.SyncQueueItem
	for rows.Next() {
		var it entity.SyncQueueItem
		var synced int
		var createdAt, updatedAt string
		if err := rows.Scan(&it.ID, &it.EntityType, &it.Action, &it.Payload, &synced, &it.RetryCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		it.Synced = synced != 0
		it.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		it.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		list = append(list, &it)
	}
	return list, rows.Err()
}

// MarkSynced marca items de la cola como sincronizados. No se borran: la cola
// conserva el histórico para auditoría.
func (s *Store) MarkSynced(ids []int64) error {
	for _, id := range ids {
		_, err := s.conn.Exec(`UPDATE sync_queue SET synced = 1, updated_at = ? WHERE id = ?`,
			time.Now().Format(time.RFC3339Nano), id)
		if err != nil {
			return fmt.Errorf("mark synced %d: %w", id, err)
		}
	}
	return nil
}

// IncrementRetry suma un intento fallido a un item de la cola.
func (s *Store) IncrementRetry(id int64) error {
	_, err := s.conn.Exec(`UPDATE sync_queue SET retry_count = retry_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("increment retry: %w", err)
	}
	return nil
}

// PendingCount cuenta los items no sincronizados de la cola.
func (s *Store) PendingCount() (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT count(*) FROM sync_queue WHERE synced = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("pending count: %w", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Marcas de agua
// ──────────────────────────────────────────────────────────────────────────────

// Watermark devuelve la marca de agua de un canal de pull (zero time si nunca se hizo pull).
func (s *Store) Watermark(key string) (time.Time, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("watermark %s: %w", key, err)
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("watermark %s corrupta: %w", key, err)
	}
	return t, nil
}

// SetWatermark avanza la marca de agua de un canal de pull.
func (s *Store) SetWatermark(key string, t time.Time) error {
	_, err := s.conn.Exec(`
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, t.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set watermark %s: %w", key, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
