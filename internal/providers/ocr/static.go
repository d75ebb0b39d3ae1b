package ocr

import "context"

// StaticEngine returns a canned Brazilian supermarket receipt. It backs local
// development and tests where no Vision credentials exist.
type StaticEngine struct{}

func NewStatic() StaticEngine { return StaticEngine{} }

func (StaticEngine) ExtractText(context.Context, []byte) (string, error) {
	return staticReceiptText, nil
}

const staticReceiptText = `
SENORS DISTRIBUIDORA S/A
Av Presidente Kennedy, 1000
Água Verde - Curitiba - PR

DOCUMENTO AUXILIAR
DA NOTA FISCAL DE CONSUMIDOR ELETRONICA

001 2275 MUSS LACTOPAR Kg
    4.086 Kg x 26,90 109,91

002 7793440702964 VHO BENJ 750ML CAB
    1.000 Gf x 29,90 29,90

003 7896982100059 OVO BCO GRANDE C/30
    1.000 Un x 15,79 15,79

004 7896982100059 OVO BCO GRANDE C/30
    1.000 Un x 15,79 15,79

QTD. TOTAL DE ITENS 4
VALOR TOTAL R$ 171,39
FORMA DE PAGAMENTO VALOR PAGO
Cart Credito 171,39
`
