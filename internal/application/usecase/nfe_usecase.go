package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/nfe"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

// NfeUseCase importación de notas fiscales: parsea el XML, deduplica por
// chave de acesso y registra la importación para el historial.
type NfeUseCase struct {
	parser     *nfe.Parser
	importRepo repository.NfeImportRepository
	log        *logger.Logger
}

// NewNfeUseCase construye el caso de uso.
func NewNfeUseCase(parser *nfe.Parser, importRepo repository.NfeImportRepository, log *logger.Logger) *NfeUseCase {
	return &NfeUseCase{parser: parser, importRepo: importRepo, log: log.Component("nfe")}
}

// Import parsea el XML y registra la importación. Si la chave de acesso ya fue
// importada en el establecimiento, no crea un registro nuevo y marca
// AlreadyImported; el documento extraído se devuelve igual para que el
// terminal pueda revisar los productos.
func (uc *NfeUseCase) Import(establishmentID string, in dto.ParseNfeRequest) (*dto.ParseNfeResponse, error) {
	if in.XMLContent == "" {
		return nil, domain.ErrInvalidInput
	}

	doc, err := uc.parser.Parse(in.XMLContent)
	if err != nil {
		return nil, err
	}

	alreadyImported := false
	if doc.Info.ChaveAcesso != "" {
		existing, err := uc.importRepo.GetByChaveAcesso(establishmentID, doc.Info.ChaveAcesso)
		if err != nil {
			return nil, err
		}
		alreadyImported = existing != nil
	}

	if !alreadyImported {
		imp := &entity.NfeImport{
			ID:              uuid.New().String(),
			EstablishmentID: establishmentID,
			ChaveAcesso:     doc.Info.ChaveAcesso,
			Numero:          doc.Info.Numero,
			Serie:           doc.Info.Serie,
			Modelo:          doc.Info.Modelo,
			FornecedorCNPJ:  doc.Fornecedor.CNPJ,
			FornecedorNome:  doc.Fornecedor.Nome,
			DataEmissao:     doc.Info.DataEmissao,
			ValorTotal:      doc.Info.ValorTotal,
			XMLContent:      in.XMLContent,
			ProdutosCount:   doc.TotalProdutos,
			CreatedAt:       time.Now(),
		}
		if err := uc.importRepo.Create(imp); err != nil {
			return nil, err
		}
		uc.log.Info().
			Str("establishment_id", establishmentID).
			Str("chave_acesso", imp.ChaveAcesso).
			Int("produtos", imp.ProdutosCount).
			Msg("NF-e importada")
	}

	return &dto.ParseNfeResponse{
		Success:         true,
		AlreadyImported: alreadyImported,
		Info:            doc.Info,
		Fornecedor:      doc.Fornecedor,
		Produtos:        doc.Produtos,
		TotalProdutos:   doc.TotalProdutos,
	}, nil
}

// Validate chequeo barato previo al import, sin persistir nada.
func (uc *NfeUseCase) Validate(xmlContent string) nfe.Validation {
	return uc.parser.Validate(xmlContent)
}

// History historial paginado de importaciones del establecimiento.
func (uc *NfeUseCase) History(establishmentID string, filter repository.NfeImportFilter, limit, offset int) (*dto.NfeHistoryResponse, error) {
	list, total, err := uc.importRepo.ListByEstablishment(establishmentID, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.NfeImportSummary, 0, len(list))
	for _, imp := range list {
		items = append(items, toNfeImportSummary(imp))
	}
	return &dto.NfeHistoryResponse{
		Imports: items,
		Page:    dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// GetByID obtiene el resumen de una importación del establecimiento.
func (uc *NfeUseCase) GetByID(id, establishmentID string) (*dto.NfeImportSummary, error) {
	imp, err := uc.importRepo.GetByID(id, establishmentID)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, nil
	}
	summary := toNfeImportSummary(imp)
	return &summary, nil
}

// GetXML devuelve el XML original de una importación, para re-descarga.
func (uc *NfeUseCase) GetXML(id, establishmentID string) (string, error) {
	imp, err := uc.importRepo.GetByID(id, establishmentID)
	if err != nil {
		return "", err
	}
	if imp == nil {
		return "", domain.ErrNotFound
	}
	return imp.XMLContent, nil
}

func toNfeImportSummary(imp *entity.NfeImport) dto.NfeImportSummary {
	return dto.NfeImportSummary{
		ID:             imp.ID,
		ChaveAcesso:    imp.ChaveAcesso,
		Numero:         imp.Numero,
		Serie:          imp.Serie,
		FornecedorCNPJ: imp.FornecedorCNPJ,
		FornecedorNome: imp.FornecedorNome,
		DataEmissao:    imp.DataEmissao,
		ValorTotal:     imp.ValorTotal,
		ProdutosCount:  imp.ProdutosCount,
		CreatedAt:      imp.CreatedAt,
	}
}
