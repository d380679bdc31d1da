package correlation

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"
)

// relationshipSchema declares the small fact base the relationship detector
// runs its derivation over: entity types, bounded co-occurrence counts, and
// the candidate_relationship rule that fires for PERSON-ORG/PERSON-PROJECT
// pairs. The caller only asserts co_occurs facts that already clear the
// evidence threshold, so the rule itself is a plain type join.
const relationshipSchema = `
Decl entity_type(Id, Type)
  bound[/string, /string].

Decl co_occurs(A, B, Count)
  bound[/string, /string, /number].

Decl candidate_relationship(A, B)
  bound[/string, /string].

candidate_relationship(A, B) :-
  co_occurs(A, B, Count),
  entity_type(A, "PERSON"),
  entity_type(B, "ORG").

candidate_relationship(A, B) :-
  co_occurs(A, B, Count),
  entity_type(A, "PERSON"),
  entity_type(B, "PROJECT").
`

// datalogEngine is a small, purpose-built wrapper around google/mangle: just
// enough to assert entity_type/co_occurs facts and query the derived
// candidate_relationship predicate. Grounded on the teacher's full-featured
// Mangle engine wrapper, trimmed to what the relationship detector needs --
// no persistence layer, since a correlation run rebuilds the fact base from
// scratch every time (consolidation is already deterministic and
// idempotent, so there is nothing to warm-start from).
type datalogEngine struct {
	mu             sync.RWMutex
	store          factstore.FactStoreWithRemove
	programInfo    *analysis.ProgramInfo
	queryContext   *mengine.QueryContext
	predicateIndex map[string]ast.PredicateSym
}

func newDatalogEngine() (*datalogEngine, error) {
	e := &datalogEngine{
		store:          factstore.NewSimpleInMemoryStore(),
		predicateIndex: make(map[string]ast.PredicateSym),
	}
	if err := e.loadSchema(relationshipSchema); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *datalogEngine) loadSchema(schema string) error {
	unit, err := parse.Unit(bytes.NewReader([]byte(schema)))
	if err != nil {
		return fmt.Errorf("parse relationship schema: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return fmt.Errorf("analyze relationship schema: %w", err)
	}
	e.programInfo = programInfo

	predToDecl := make(map[ast.PredicateSym]*ast.Decl, len(programInfo.Decls))
	for sym, decl := range programInfo.Decls {
		e.predicateIndex[sym.Symbol] = sym
		predToDecl[sym] = decl
	}
	predToRules := make(map[ast.PredicateSym][]ast.Clause)
	for _, clause := range programInfo.Rules {
		predToRules[clause.Head.Predicate] = append(predToRules[clause.Head.Predicate], clause)
	}
	e.queryContext = &mengine.QueryContext{
		PredToRules: predToRules,
		PredToDecl:  predToDecl,
		Store:       e.store,
	}
	return nil
}

// addFact asserts a fact without triggering evaluation; call evaluate once
// the whole batch has been asserted.
func (e *datalogEngine) addFact(predicate string, args ...interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sym, ok := e.predicateIndex[predicate]
	if !ok {
		return fmt.Errorf("datalog: predicate %s not declared", predicate)
	}
	if len(args) != sym.Arity {
		return fmt.Errorf("datalog: predicate %s expects %d args, got %d", predicate, sym.Arity, len(args))
	}
	terms := make([]ast.BaseTerm, len(args))
	for i, a := range args {
		term, err := toTerm(a)
		if err != nil {
			return fmt.Errorf("datalog: fact %s arg %d: %w", predicate, i, err)
		}
		terms[i] = term
	}
	e.store.Add(ast.Atom{Predicate: sym, Args: terms})
	return nil
}

// evaluate runs the declared rules over every asserted fact, deriving
// candidate_relationship.
func (e *datalogEngine) evaluate() error {
	e.mu.RLock()
	info := e.programInfo
	store := e.store
	e.mu.RUnlock()
	if info == nil {
		return fmt.Errorf("datalog: no schema loaded")
	}
	_, err := mengine.EvalProgramWithStats(info, store)
	return err
}

// candidateRelationships returns every (a, b) pair the rule derived.
func (e *datalogEngine) candidateRelationships(ctx context.Context) ([][2]string, error) {
	e.mu.RLock()
	sym, ok := e.predicateIndex["candidate_relationship"]
	store := e.store
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("datalog: candidate_relationship not declared")
	}

	var pairs [][2]string
	err := store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		if len(atom.Args) != 2 {
			return nil
		}
		a, _ := fromTerm(atom.Args[0]).(string)
		b, _ := fromTerm(atom.Args[1]).(string)
		pairs = append(pairs, [2]string{a, b})
		return nil
	})
	return pairs, err
}

func (e *datalogEngine) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = factstore.NewSimpleInMemoryStore()
}

func (e *datalogEngine) close() {}

// toTerm converts a Go value into a Mangle BaseTerm. Only strings and
// numeric types are needed for this engine's two fact predicates.
func toTerm(value interface{}) (ast.BaseTerm, error) {
	switch v := value.(type) {
	case string:
		return ast.String(v), nil
	case int:
		return ast.Number(int64(v)), nil
	case int64:
		return ast.Number(v), nil
	case float64:
		return ast.Float64(v), nil
	default:
		return nil, fmt.Errorf("unsupported fact argument type %T", v)
	}
}

func fromTerm(term ast.BaseTerm) interface{} {
	c, ok := term.(ast.Constant)
	if !ok {
		return fmt.Sprintf("%v", term)
	}
	switch c.Type {
	case ast.StringType, ast.NameType, ast.BytesType:
		return c.Symbol
	case ast.NumberType:
		return c.NumValue
	case ast.Float64Type:
		return math.Float64frombits(uint64(c.NumValue))
	default:
		return c.String()
	}
}
