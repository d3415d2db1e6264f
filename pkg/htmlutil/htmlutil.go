package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("madischedule.pkg.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteByte(' ')
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// NormalizeText drops non-printable characters, collapses runs of whitespace
// (including non-breaking spaces) into one space and trims the result.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CellText returns the normalized text of every node in the selection.
func CellText(sel *goquery.Selection) string {
	var buffer strings.Builder
	for _, n := range sel.Nodes {
		buffer.WriteString(GetText(n))
		buffer.WriteByte(' ')
	}
	return NormalizeText(buffer.String())
}

type Option struct {
	Label string
	Value string
}

// GetOptions returns the `<option>` elements of the first `<select>` in sel
// in document order. An option without a value attribute takes its label as
// value, the same way a browser submits it.
func GetOptions(ctx context.Context, sel *goquery.Selection) []Option {
	_, span := tracer.Start(ctx, "GetOptions")
	defer span.End()

	options := []Option{}
	sel.First().Find("option").Each(func(_ int, option *goquery.Selection) {
		label := CellText(option)
		value, ok := option.Attr("value")
		if !ok {
			value = label
		}
		options = append(options, Option{
			Label: label,
			Value: value,
		})
		span.AddEvent("option", trace.WithAttributes(
			attribute.String("label", label),
			attribute.String("value", value),
		))
	})

	return options
}
