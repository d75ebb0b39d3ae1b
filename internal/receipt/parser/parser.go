package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MinTextLength is the shortest OCR output considered readable. Anything below
// this is garbage from the OCR engine, not a receipt.
const MinTextLength = 20

// Item is a single line item recovered from receipt text.
type Item struct {
	RawName  string          `json:"raw_name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Result is the structured output of a parse pass.
type Result struct {
	MarketName  string              `json:"market_name"`
	TotalAmount decimal.NullDecimal `json:"total_amount"`
	Items       []Item              `json:"items"`
}

var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)TOTAL[\s:]*R?\$?\s*([\d,\.]+)`),
	regexp.MustCompile(`(?i)VALOR\s+TOTAL[\s:]*R?\$?\s*([\d,\.]+)`),
	regexp.MustCompile(`(?i)R\$\s*([\d,\.]+)\s*TOTAL`),
}

// Qty, optional unit, "x", unit price, total. Ex: "4,086 Kg x 26,90 109,91".
var quantityLineRe = regexp.MustCompile(`(?i)^\s*([\d\.,]+)\s*(?:Kg|Un|Gf|L|M|PC|SC)?\s*[xX]\s*([\d\.,]+)\s+([\d\.,]+)`)

// Trailing "<name> <price>" on a single line. Ex: "LEITE 5.99".
var singleLineRe = regexp.MustCompile(`^(.+?)\s+([\d,\.]+)$`)

var leadingCodeRe = regexp.MustCompile(`^[\d\s\.]+`)

// Trailing package size tokens ("1L", "500G", "5KG") are part of the product
// label, not the name tail we validate against.
var trailingSizeRe = regexp.MustCompile(`(?i)\s+\d+(?:[.,]\d+)?\s*(?:KG|G|L|ML|UN)$`)

// Lines carrying any of these are receipt plumbing (totals, payment, tax,
// operator data), never purchasable items.
var stopKeywords = []string{
	"TOTAL", "SUBTOTAL", "VALOR", "PAGAMENTO", "TROCO", "DINHEIRO",
	"CARTAO", "CREDITO", "DEBITO", "CPF", "CNPJ", "IMPOSTO", "TRIBUTO",
	"CAIXA", "OPERADOR", "DATA", "HORA",
}

var noisePrefixes = []string{"| ", "- ", "* ", "# "}

var (
	singleLineMinPrice = decimal.NewFromFloat(0.50)
	singleLineMaxPrice = decimal.NewFromInt(5000)
)

// Parse turns raw OCR text into a market name, total amount and line items.
// It is a pure function: same text in, same result out. Parsing is best effort
// and lossy; lines that match no extraction strategy are dropped silently.
func Parse(text string) Result {
	return Result{
		MarketName:  extractMarketName(text),
		TotalAmount: extractTotalAmount(text),
		Items:       extractItems(text),
	}
}

// extractMarketName returns the first of the first five non-empty lines that
// is longer than three characters and not purely numeric or punctuation.
func extractMarketName(text string) string {
	lines := nonEmptyLines(text)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		if len(line) > 3 && !isNumericOrPunctuation(line) {
			return line
		}
	}
	return ""
}

func extractTotalAmount(text string) decimal.NullDecimal {
	for _, re := range totalPatterns {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value, err := parseAmount(match[1])
		if err != nil {
			continue
		}
		return decimal.NullDecimal{Decimal: value, Valid: true}
	}
	return decimal.NullDecimal{}
}

// extractItems scans line by line, trying each extraction strategy in priority
// order and short-circuiting on the first that accepts the line.
func extractItems(text string) []Item {
	lines := nonEmptyLines(text)

	var items []Item
	for i, line := range lines {
		if len(line) < 5 || containsStopKeyword(line) {
			continue
		}

		if item, ok := extractTwoLineItem(lines, i); ok {
			items = append(items, item)
			continue
		}
		if item, ok := extractSingleLineItem(line); ok {
			items = append(items, item)
		}
	}
	return items
}

// extractTwoLineItem handles the dominant Brazilian layout where the item name
// sits on one line and "<qty> <unit> x <unit price> <total>" on the next. On
// acceptance the quantity line is blanked so it is not re-scanned.
func extractTwoLineItem(lines []string, i int) (Item, bool) {
	if i+1 >= len(lines) {
		return Item{}, false
	}

	match := quantityLineRe.FindStringSubmatch(lines[i+1])
	if match == nil {
		return Item{}, false
	}

	qty, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", "."))
	if err != nil {
		return Item{}, false
	}

	totalStr := strings.ReplaceAll(match[3], ",", ".")
	totalStr = repairDroppedDecimal(totalStr)
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return Item{}, false
	}

	name := cleanItemName(lines[i])
	if len(name) <= 3 || !total.IsPositive() {
		return Item{}, false
	}

	lines[i+1] = ""
	return Item{RawName: name, Quantity: qty, Price: total}, true
}

// extractSingleLineItem is the fallback for "<name> <price>" lines. The price
// range and the digit-free name tail keep phone numbers, dates and barcodes
// from registering as items.
func extractSingleLineItem(line string) (Item, bool) {
	match := singleLineRe.FindStringSubmatch(line)
	if match == nil {
		return Item{}, false
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(match[2], ",", "."))
	if err != nil {
		return Item{}, false
	}
	if price.LessThan(singleLineMinPrice) || price.GreaterThan(singleLineMaxPrice) {
		return Item{}, false
	}

	name := trailingSizeRe.ReplaceAllString(strings.TrimSpace(match[1]), "")
	if len(name) <= 2 || tailHasDigit(name) {
		return Item{}, false
	}

	return Item{
		RawName:  name,
		Quantity: decimal.NewFromInt(1),
		Price:    price,
	}, true
}

// repairDroppedDecimal reinserts the decimal point OCR engines routinely lose
// on the total figure ("15,79" read as "15779"): a separator-free run longer
// than three digits gets the point back before the last two digits.
func repairDroppedDecimal(value string) string {
	if strings.Contains(value, ".") || len(value) <= 3 {
		return value
	}
	return value[:len(value)-2] + "." + value[len(value)-2:]
}

func cleanItemName(line string) string {
	name := leadingCodeRe.ReplaceAllString(line, "")
	for _, prefix := range noisePrefixes {
		name = strings.TrimPrefix(name, prefix)
	}
	return strings.TrimSpace(name)
}

// parseAmount reads a Brazilian-formatted amount: "." as thousands separator,
// "," as decimal separator. A comma-free value with a single dot followed by
// at most two digits is already in decimal form and kept as is.
func parseAmount(value string) (decimal.Decimal, error) {
	if strings.Contains(value, ",") {
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
		return decimal.NewFromString(value)
	}
	if idx := strings.LastIndex(value, "."); idx >= 0 {
		if strings.Count(value, ".") == 1 && len(value)-idx-1 <= 2 {
			return decimal.NewFromString(value)
		}
		value = strings.ReplaceAll(value, ".", "")
	}
	return decimal.NewFromString(value)
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func containsStopKeyword(line string) bool {
	upper := strings.ToUpper(line)
	for _, keyword := range stopKeywords {
		if strings.Contains(upper, keyword) {
			return true
		}
	}
	return false
}

func isNumericOrPunctuation(line string) bool {
	for _, r := range line {
		switch {
		case r >= '0' && r <= '9':
		case strings.ContainsRune(".,-/ :;#*", r):
		default:
			return false
		}
	}
	return true
}

func tailHasDigit(name string) bool {
	tail := name
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	return strings.ContainsAny(tail, "0123456789")
}
