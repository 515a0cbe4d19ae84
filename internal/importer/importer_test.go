package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	catalogsvc "storefront/internal/service/catalog"
)

type savedItem struct {
	kind domain.Kind
	in   catalogsvc.UpsertInput
}

type stubWriter struct {
	items []savedItem
}

func (s *stubWriter) Upsert(_ context.Context, kind domain.Kind, in catalogsvc.UpsertInput) (*domain.CatalogItem, error) {
	s.items = append(s.items, savedItem{kind: kind, in: in})
	return &domain.CatalogItem{ID: in.ID, Kind: kind, Name: in.Name}, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `kind,id,name,price,category,brand,stock,isOffer,isBestSeller,compatibleWith
Product,00000000-0000-0000-0000-000000000001,Phone One,499.99,Mobile,Acme,12,true,false,
accessory,,Case,19.50,Cases,Acme,40,false,true,Phone One
,,,,,,,,,Phone Two
Product,,Tablet,299,Tablets,Acme,,,,`

	writer := &stubWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), writer, nil)

	counts, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.KindProduct])
	assert.Equal(t, 1, counts[domain.KindAccessory])
	require.Len(t, writer.items, 3)

	phone := writer.items[0]
	assert.Equal(t, domain.KindProduct, phone.kind)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", phone.in.ID)
	assert.Equal(t, 12, phone.in.Stock)
	assert.True(t, phone.in.IsOffer)
	assert.Equal(t, "499.99", phone.in.Price.String())

	acc := writer.items[1]
	assert.Equal(t, domain.KindAccessory, acc.kind)
	assert.True(t, acc.in.IsBestSeller)
	assert.Equal(t, []string{"Phone One", "Phone Two"}, acc.in.CompatibleWith)

	assert.Zero(t, writer.items[2].in.Stock)
}

func TestCSVImporter_RejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"bad kind":  "kind,name,price\nGadget,Thing,1\n",
		"bad price": "kind,name,price\nProduct,Thing,cheap\n",
		"bad id":    "kind,id,name,price\nProduct,abc,Thing,1\n",
		"no price":  "kind,name\nProduct,Thing\n",
	}
	for name, data := range cases {
		writer := &stubWriter{}
		_, err := NewCSVImporter(strings.NewReader(data), writer, nil).Run(context.Background())
		assert.Error(t, err, name)
		assert.Empty(t, writer.items, name)
	}
}
