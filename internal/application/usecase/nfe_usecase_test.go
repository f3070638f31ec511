package usecase_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/application/usecase"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/nfe"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

type memImportRepo struct {
	byChave map[string]*entity.NfeImport
}

func (r *memImportRepo) Create(imp *entity.NfeImport) error {
	cp := *imp
	r.byChave[imp.ChaveAcesso] = &cp
	return nil
}

func (r *memImportRepo) GetByID(id, establishmentID string) (*entity.NfeImport, error) {
	for _, imp := range r.byChave {
		if imp.ID == id && imp.EstablishmentID == establishmentID {
			cp := *imp
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memImportRepo) GetByChaveAcesso(_, chaveAcesso string) (*entity.NfeImport, error) {
	imp, ok := r.byChave[chaveAcesso]
	if !ok {
		return nil, nil
	}
	cp := *imp
	return &cp, nil
}

func (r *memImportRepo) ListByEstablishment(_ string, _ repository.NfeImportFilter, limit, offset int) ([]*entity.NfeImport, int, error) {
	var out []*entity.NfeImport
	for _, imp := range r.byChave {
		out = append(out, imp)
	}
	return out, len(out), nil
}

const nfeMinimo = `<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe">
  <NFe>
    <infNFe Id="NFe35210812345678000190550010000000011234567890">
      <ide><nNF>1</nNF><serie>1</serie><mod>55</mod><dhEmi>2021-08-10T09:30:00-03:00</dhEmi></ide>
      <emit><CNPJ>12345678000190</CNPJ><xNome>DISTRIBUIDORA TESTE LTDA</xNome></emit>
      <det nItem="1">
        <prod>
          <cProd>001</cProd><xProd>ARROZ TIPO 1</xProd>
          <qCom>10.0000</qCom><vUnCom>4.50</vUnCom><uCom>UN</uCom>
        </prod>
      </det>
      <total><ICMSTot><vNF>45.00</vNF></ICMSTot></total>
    </infNFe>
  </NFe>
</nfeProc>`

func newNfeFixture() (*usecase.NfeUseCase, *memImportRepo) {
	repo := &memImportRepo{byChave: map[string]*entity.NfeImport{}}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return usecase.NewNfeUseCase(nfe.NewParser(), repo, log), repo
}

func TestNfeImport_RegistraYDeduplica(t *testing.T) {
	uc, repo := newNfeFixture()

	out, err := uc.Import(testEstab, dto.ParseNfeRequest{XMLContent: nfeMinimo})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.False(t, out.AlreadyImported)
	assert.Equal(t, 1, out.TotalProdutos)
	require.Len(t, repo.byChave, 1)

	stored := repo.byChave[out.Info.ChaveAcesso]
	require.NotNil(t, stored)
	assert.Equal(t, nfeMinimo, stored.XMLContent)
	assert.Equal(t, "DISTRIBUIDORA TESTE LTDA", stored.FornecedorNome)

	// Reimportar el mismo XML no crea otro registro
	out, err = uc.Import(testEstab, dto.ParseNfeRequest{XMLContent: nfeMinimo})
	require.NoError(t, err)
	assert.True(t, out.AlreadyImported)
	assert.Equal(t, 1, out.TotalProdutos)
	assert.Len(t, repo.byChave, 1)
}

func TestNfeImport_XMLVacio(t *testing.T) {
	uc, _ := newNfeFixture()

	_, err := uc.Import(testEstab, dto.ParseNfeRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNfeImport_XMLMalformado(t *testing.T) {
	uc, repo := newNfeFixture()

	_, err := uc.Import(testEstab, dto.ParseNfeRequest{XMLContent: "<pedido><item/></pedido>"})
	var malformed *nfe.MalformedDocumentError
	require.True(t, errors.As(err, &malformed))
	assert.Empty(t, repo.byChave)
}

func TestNfeGetXML(t *testing.T) {
	uc, repo := newNfeFixture()

	out, err := uc.Import(testEstab, dto.ParseNfeRequest{XMLContent: nfeMinimo})
	require.NoError(t, err)

	stored := repo.byChave[out.Info.ChaveAcesso]
	xml, err := uc.GetXML(stored.ID, testEstab)
	require.NoError(t, err)
	assert.Equal(t, nfeMinimo, xml)

	_, err = uc.GetXML("no-such", testEstab)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
