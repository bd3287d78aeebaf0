// Package filter provides AIP-160 filter expression parsing and SQL translation
// for encounter and character listings.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "name = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// field binds a filter identifier to its column and declared type.
type field struct {
	column    string
	kind      *expr.Type
	timestamp bool
}

// schema is the set of identifiers one resource accepts.
type schema map[string]field

var encounterFields = schema{
	"id":         {column: "id", kind: filtering.TypeString},
	"name":       {column: "name", kind: filtering.TypeString},
	"revision":   {column: "revision", kind: filtering.TypeInt},
	"created_at": {column: "created_at", kind: filtering.TypeTimestamp, timestamp: true},
	"updated_at": {column: "updated_at", kind: filtering.TypeTimestamp, timestamp: true},
}

var characterFields = schema{
	"id":    {column: "id", kind: filtering.TypeString},
	"name":  {column: "name", kind: filtering.TypeString},
	"level": {column: "level", kind: filtering.TypeInt},
}

// ParseEncounterFilter parses a filter over encounters. Supported fields are
// id, name, revision, created_at and updated_at.
func ParseEncounterFilter(filterStr string) (SQLCondition, error) {
	return parse(filterStr, encounterFields)
}

// ParseCharacterFilter parses a filter over characters. Supported fields are
// id, name and level.
func ParseCharacterFilter(filterStr string) (SQLCondition, error) {
	return parse(filterStr, characterFields)
}

func (s schema) declarations() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for name, f := range s {
		opts = append(opts, filtering.DeclareIdent(name, f.kind))
	}
	return filtering.NewDeclarations(opts...)
}

func parse(filterStr string, fields schema) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := fields.declarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}
	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translator{fields: fields}.expr(filter.CheckedExpr.GetExpr())
}

type translator struct {
	fields schema
}

var operators = map[string]string{
	"_==_": "=", "=": "=",
	"_!=_": "!=", "!=": "!=",
	"_<_": "<", "<": "<",
	"_<=_": "<=", "<=": "<=",
	"_>_": ">", ">": ">",
	"_>=_": ">=", ">=": ">=",
}

func (t translator) expr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}

	switch fn := call.CallExpr.Function; fn {
	case "_&&_", "AND":
		return t.join(call.CallExpr.Args, "AND")
	case "_||_", "OR":
		return t.join(call.CallExpr.Args, "OR")
	default:
		op, ok := operators[fn]
		if !ok {
			return SQLCondition{}, fmt.Errorf("unsupported function: %s", fn)
		}
		return t.comparison(call.CallExpr.Args, op)
	}
}

func (t translator) join(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := t.expr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := t.expr(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func (t translator) comparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("expected identifier, got %T", args[0].GetExprKind())
	}
	f, ok := t.fields[ident.IdentExpr.Name]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", ident.IdentExpr.Name)
	}
	value, err := extractValue(args[1], f.timestamp)
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", f.column, op),
		Params: []any{value},
	}, nil
}

func extractValue(e *expr.Expr, timestamp bool) (any, error) {
	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		if timestamp {
			return nil, fmt.Errorf("timestamp fields compare against timestamp(\"...\")")
		}
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampMillis(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	switch kind := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

// extractTimestampMillis returns the unix milliseconds stored in sqlite
// timestamp columns.
func extractTimestampMillis(e *expr.Expr) (int64, error) {
	constant, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	value, ok := constant.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	parsed, err := time.Parse(time.RFC3339Nano, value.StringValue)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", value.StringValue)
	}
	return parsed.UTC().UnixMilli(), nil
}
