// Package extract implements the read-only per-action primitives from
// spec.md §4.5: getText, getAttribute, getAll, getPageContent, and schema-
// driven structured extraction, each running inside the action engine
// envelope like the interact package's write primitives.
package extract

import (
	"context"
	"strconv"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/extract/htmlclean"
	"github.com/entrhq/voyager/internal/resilience"
	"github.com/entrhq/voyager/internal/selector"
)

// GetText builds an action.Body reading an element's text content after a
// stability wait and selector resolution.
func GetText(sel selector.Selector, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		res, err := selector.Resolve(ctx, page, sel, driver.Visible, budget)
		if err != nil {
			return nil, err
		}
		meta.SelectorResolved = true

		text, err := res.Locator.TextContent(ctx)
		if err != nil {
			return nil, err
		}
		return text, nil
	}
}

// GetAttribute builds an action.Body reading a single named attribute.
func GetAttribute(sel selector.Selector, name string, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		res, err := selector.Resolve(ctx, page, sel, driver.Visible, budget)
		if err != nil {
			return nil, err
		}
		meta.SelectorResolved = true

		val, err := res.Locator.GetAttribute(ctx, name)
		if err != nil {
			return nil, err
		}
		return val, nil
	}
}

// Field is one requested output key in a getAll / structured extraction
// call. Source is "textContent", "innerHTML", or an HTML attribute name.
type Field struct {
	Key    string
	Source string
}

// GetAll builds an action.Body that materialises a list of maps, one per
// matched element, with the requested fields resolved for each.
func GetAll(sel selector.Selector, fields []Field, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		res, err := selector.Resolve(ctx, page, sel, driver.Attached, budget)
		if err != nil {
			return nil, err
		}
		meta.SelectorResolved = true

		members, err := res.Locator.All(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]map[string]interface{}, 0, len(members))
		for _, loc := range members {
			row := make(map[string]interface{}, len(fields))
			for _, f := range fields {
				val, err := readField(ctx, loc, f.Source)
				if err != nil {
					return nil, err
				}
				row[f.Key] = val
			}
			rows = append(rows, row)
		}
		return rows, nil
	}
}

func readField(ctx context.Context, loc driver.Locator, source string) (string, error) {
	switch source {
	case "textContent":
		return loc.TextContent(ctx)
	case "innerHTML":
		return loc.InnerHTML(ctx)
	default:
		return loc.GetAttribute(ctx, source)
	}
}

// PageContentResult is getPageContent's payload.
type PageContentResult struct {
	HTML        string
	Title       string
	Description string
	Truncated   bool
}

// GetPageContent builds an action.Body that reads the page's full HTML and
// runs it through htmlclean, stripping script/style/noscript/svg noise and
// collapsing whitespace.
func GetPageContent(maxLength int) action.Body {
	if maxLength <= 0 {
		maxLength = 20_000
	}
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		raw, err := page.Content(ctx)
		if err != nil {
			return nil, err
		}

		cleaned, err := htmlclean.Clean(raw, maxLength)
		if err != nil {
			return nil, browsererr.New(browsererr.AssertionFailed, "clean page content: %v", err)
		}
		return PageContentResult{
			HTML:        cleaned.HTML,
			Title:       cleaned.Title,
			Description: cleaned.Description,
			Truncated:   cleaned.Truncated,
		}, nil
	}
}

// FieldType is a structured-extraction output field's coercion target.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
)

// SchemaField is one entry in a structured extraction schema.
type SchemaField struct {
	Key    string
	Source string // "textContent", "innerHTML", or an attribute name
	Type   FieldType
}

// Provenance records where one extracted row came from, for the agent to
// cross-check against the live page.
type Provenance struct {
	Index     int
	TagName   string
	ID        string
	ClassName string
	Strategy  string
}

// StructuredResult is structured extraction's payload.
type StructuredResult struct {
	Data       []map[string]interface{}
	Provenance []Provenance
}

const tagIdentityScript = `el => ({tagName: el.tagName, id: el.id, className: el.className})`

// StructuredExtract builds an action.Body that resolves sel, iterates up to
// limit matched elements (0 means unlimited), coerces each schema field per
// its declared type, and returns both the extracted rows and provenance
// metadata for each.
func StructuredExtract(sel selector.Selector, fields []SchemaField, limit int, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		res, err := selector.Resolve(ctx, page, sel, driver.Attached, budget)
		if err != nil {
			return nil, err
		}
		meta.SelectorResolved = true

		members, err := res.Locator.All(ctx)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(members) > limit {
			members = members[:limit]
		}

		result := StructuredResult{
			Data:       make([]map[string]interface{}, 0, len(members)),
			Provenance: make([]Provenance, 0, len(members)),
		}

		for i, loc := range members {
			row := make(map[string]interface{}, len(fields))
			for _, f := range fields {
				raw, err := readField(ctx, loc, f.Source)
				if err != nil {
					return nil, err
				}
				coerced, err := coerce(raw, f.Type)
				if err != nil {
					return nil, browsererr.NewAssertionFailed("field %q: %v", f.Key, err)
				}
				row[f.Key] = coerced
			}
			meta.AssertionsChecked++
			result.Data = append(result.Data, row)

			prov := Provenance{Index: i, Strategy: res.Strategy.String()}
			if ident, err := loc.Evaluate(ctx, tagIdentityScript, nil); err == nil {
				if m, ok := ident.(map[string]interface{}); ok {
					if s, ok := m["tagName"].(string); ok {
						prov.TagName = s
					}
					if s, ok := m["id"].(string); ok {
						prov.ID = s
					}
					if s, ok := m["className"].(string); ok {
						prov.ClassName = s
					}
				}
			}
			result.Provenance = append(result.Provenance, prov)
		}

		return result, nil
	}
}

func coerce(raw string, kind FieldType) (interface{}, error) {
	switch kind {
	case TypeNumber:
		return strconv.ParseFloat(raw, 64)
	case TypeInteger:
		return strconv.Atoi(raw)
	case TypeBoolean:
		return strconv.ParseBool(raw)
	case TypeString, "":
		return raw, nil
	default:
		return nil, browsererr.NewAssertionFailed("unknown field type %q", kind)
	}
}
