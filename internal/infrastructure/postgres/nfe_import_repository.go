package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
)

var _ repository.NfeImportRepository = (*NfeImportRepo)(nil)

const nfeImportColumns = `id, establishment_id, chave_acesso, numero, serie, modelo,
	fornecedor_cnpj, fornecedor_nome, data_emissao, valor_total, xml_content, produtos_count, created_at`

// NfeImportRepo implementación del puerto NfeImportRepository sobre PostgreSQL.
type NfeImportRepo struct {
	q Querier
}

// NewNfeImportRepository construye el adaptador de importaciones de NF-e.
func NewNfeImportRepository(q Querier) *NfeImportRepo {
	return &NfeImportRepo{q: q}
}

// Create persiste una importación. La chave de acesso es única por establecimiento.
func (r *NfeImportRepo) Create(imp *entity.NfeImport) error {
	query := `
		INSERT INTO nfe_imports (` + nfeImportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		imp.ID, imp.EstablishmentID, imp.ChaveAcesso, imp.Numero, imp.Serie, imp.Modelo,
		imp.FornecedorCNPJ, imp.FornecedorNome, imp.DataEmissao, imp.ValorTotal,
		imp.XMLContent, imp.ProdutosCount, imp.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert nfe import: %w", err)
	}
	return nil
}

// GetByID obtiene una importación del establecimiento.
func (r *NfeImportRepo) GetByID(id, establishmentID string) (*entity.NfeImport, error) {
	query := `SELECT ` + nfeImportColumns + ` FROM nfe_imports WHERE id = $1 AND establishment_id = $2`
	return scanNfeImport(r.q.QueryRow(context.Background(), query, id, establishmentID))
}

// GetByChaveAcesso deduplica por chave de acesso dentro del establecimiento.
func (r *NfeImportRepo) GetByChaveAcesso(establishmentID, chaveAcesso string) (*entity.NfeImport, error) {
	query := `SELECT ` + nfeImportColumns + ` FROM nfe_imports WHERE establishment_id = $1 AND chave_acesso = $2`
	return scanNfeImport(r.q.QueryRow(context.Background(), query, establishmentID, chaveAcesso))
}

// ListByEstablishment devuelve la página y el total para el filtro dado, más recientes primero.
func (r *NfeImportRepo) ListByEstablishment(establishmentID string, filter repository.NfeImportFilter, limit, offset int) ([]*entity.NfeImport, int, error) {
	ctx := context.Background()
	where := `WHERE establishment_id = $1`
	args := []any{establishmentID}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND data_emissao >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND data_emissao <= $%d", len(args))
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM nfe_imports `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count nfe imports: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+nfeImportColumns+` FROM nfe_imports %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list nfe imports: %w", err)
	}
	defer rows.Close()

	var list []*entity.NfeImport
	for rows.Next() {
		var imp entity.NfeImport
		if err := rows.Scan(
			&imp.ID, &imp.EstablishmentID, &imp.ChaveAcesso, &imp.Numero, &imp.Serie, &imp.Modelo,
			&imp.FornecedorCNPJ, &imp.FornecedorNome, &imp.DataEmissao, &imp.ValorTotal,
			&imp.XMLContent, &imp.ProdutosCount, &imp.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan nfe import: %w", err)
		}
		list = append(list, &imp)
	}
	return list, total, rows.Err()
}

func scanNfeImport(row pgx.Row) (*entity.NfeImport, error) {
	var imp entity.NfeImport
	err := row.Scan(
		&imp.ID, &imp.EstablishmentID, &imp.ChaveAcesso, &imp.Numero, &imp.Serie, &imp.Modelo,
		&imp.FornecedorCNPJ, &imp.FornecedorNome, &imp.DataEmissao, &imp.ValorTotal,
		&imp.XMLContent, &imp.ProdutosCount, &imp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan nfe import: %w", err)
	}
	return &imp, nil
}
