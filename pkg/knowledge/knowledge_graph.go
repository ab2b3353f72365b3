package knowledge

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/cnclabs/kgsample/pkg/logger"
)

// Monitor is the number of lines between progress messages while loading.
const Monitor = 10000

var (
	// ErrIDOutOfRange is returned when a mapped triple references an id
	// outside the declared entity or relation range.
	ErrIDOutOfRange = errors.New("knowledge: id out of range")

	// ErrColumnRemapping is returned for a column remapping that is not a
	// permutation-like selection of exactly three columns.
	ErrColumnRemapping = errors.New("knowledge: remapping must have length of three")
)

// Triple represents a knowledge graph triple (head, relation, tail)
type Triple struct {
	Head     int64
	Relation int64
	Tail     int64
}

// String renders the triple as "(h, r, t)".
func (t Triple) String() string {
	return fmt.Sprintf("(%d, %d, %d)", t.Head, t.Relation, t.Tail)
}

// KnowledgeGraph holds id-mapped triples together with the entity and
// relation counts and, when loaded from a labeled file, the label maps.
// The triple slice is never mutated after construction.
type KnowledgeGraph struct {
	// Entity and relation mappings
	EntityHash   map[string]int64
	RelationHash map[string]int64
	EntityKeys   []string
	RelationKeys []string

	// Triples
	Triples []Triple

	// Statistics
	NumEntities  int64
	NumRelations int64
	NumTriples   int64
}

// NewKnowledgeGraph creates a new, empty knowledge graph instance
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		EntityHash:   make(map[string]int64),
		RelationHash: make(map[string]int64),
		EntityKeys:   make([]string, 0),
		RelationKeys: make([]string, 0),
		Triples:      make([]Triple, 0),
	}
}

// FromMapped wraps already id-mapped triples. A non-positive numEntities or
// numRelations defaults to the largest id seen plus one. Declared counts
// smaller than the ids actually used are rejected with ErrIDOutOfRange.
func FromMapped(triples []Triple, numEntities, numRelations int64) (*KnowledgeGraph, error) {
	kg := NewKnowledgeGraph()
	kg.Triples = slices.Clone(triples)
	kg.NumTriples = int64(len(triples))

	if numEntities <= 0 {
		numEntities = NumEntityIDs(triples)
	}
	if numRelations <= 0 {
		numRelations = NumRelationIDs(triples)
	}
	kg.NumEntities = numEntities
	kg.NumRelations = numRelations

	if err := kg.Validate(); err != nil {
		return nil, err
	}
	return kg, nil
}

// Validate checks that every triple lies within the declared id ranges.
func (kg *KnowledgeGraph) Validate() error {
	for i, t := range kg.Triples {
		if t.Head < 0 || t.Head >= kg.NumEntities || t.Tail < 0 || t.Tail >= kg.NumEntities {
			return fmt.Errorf("%w: triple %d %v has entity outside [0, %d)", ErrIDOutOfRange, i, t, kg.NumEntities)
		}
		if t.Relation < 0 || t.Relation >= kg.NumRelations {
			return fmt.Errorf("%w: triple %d %v has relation outside [0, %d)", ErrIDOutOfRange, i, t, kg.NumRelations)
		}
	}
	return nil
}

// LoadTriples loads knowledge graph triples from a delimited text file.
// Format (default): head<TAB>relation<TAB>tail
// Lines with fewer than three columns are skipped.
func (kg *KnowledgeGraph) LoadTriples(filename string, opts ...LoadOption) error {
	o := defaultLoadOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return o.err
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	logger.Info("Loading knowledge graph", "file", filename)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineCount := int64(0)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		parts := strings.Split(line, o.Delimiter)

		head, relation, tail, ok := o.pick(parts)
		if !ok {
			continue
		}

		kg.AddLabeled(head, relation, tail)

		lineCount++
		if lineCount%Monitor == 0 {
			logger.Debug("Loading knowledge graph", "triples", lineCount)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	logger.Info("Knowledge graph loaded",
		"entities", kg.NumEntities,
		"relations", kg.NumRelations,
		"triples", kg.NumTriples,
	)

	return nil
}

// AddLabeled appends a labeled triple, assigning ids in first-seen order.
func (kg *KnowledgeGraph) AddLabeled(head, relation, tail string) Triple {
	t := Triple{
		Head:     kg.getOrCreateEntity(head),
		Relation: kg.getOrCreateRelation(relation),
		Tail:     kg.getOrCreateEntity(tail),
	}
	kg.Triples = append(kg.Triples, t)
	kg.NumTriples = int64(len(kg.Triples))
	kg.NumEntities = int64(len(kg.EntityKeys))
	kg.NumRelations = int64(len(kg.RelationKeys))
	return t
}

// getOrCreateEntity gets or creates an entity ID
func (kg *KnowledgeGraph) getOrCreateEntity(name string) int64 {
	if id, exists := kg.EntityHash[name]; exists {
		return id
	}

	id := int64(len(kg.EntityKeys))
	kg.EntityHash[name] = id
	kg.EntityKeys = append(kg.EntityKeys, name)
	return id
}

// getOrCreateRelation gets or creates a relation ID
func (kg *KnowledgeGraph) getOrCreateRelation(name string) int64 {
	if id, exists := kg.RelationHash[name]; exists {
		return id
	}

	id := int64(len(kg.RelationKeys))
	kg.RelationHash[name] = id
	kg.RelationKeys = append(kg.RelationKeys, name)
	return id
}

// GetEntityName returns the name of an entity by ID, or "" when the graph
// carries no labels for it.
func (kg *KnowledgeGraph) GetEntityName(id int64) string {
	if id < 0 || id >= int64(len(kg.EntityKeys)) {
		return ""
	}
	return kg.EntityKeys[id]
}

// GetRelationName returns the name of a relation by ID
func (kg *KnowledgeGraph) GetRelationName(id int64) string {
	if id < 0 || id >= int64(len(kg.RelationKeys)) {
		return ""
	}
	return kg.RelationKeys[id]
}

// GetTriple returns the triple at the given index
func (kg *KnowledgeGraph) GetTriple(idx int64) Triple {
	if idx < 0 || idx >= int64(len(kg.Triples)) {
		return Triple{}
	}
	return kg.Triples[idx]
}

// Entities returns the sorted set of entity ids appearing as head or tail.
func (kg *KnowledgeGraph) Entities() []int64 {
	seen := make(map[int64]struct{}, kg.NumEntities)
	for _, t := range kg.Triples {
		seen[t.Head] = struct{}{}
		seen[t.Tail] = struct{}{}
	}
	return sortedKeys(seen)
}

// Relations returns the sorted set of relation ids in use.
func (kg *KnowledgeGraph) Relations() []int64 {
	seen := make(map[int64]struct{}, kg.NumRelations)
	for _, t := range kg.Triples {
		seen[t.Relation] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// NumEntityIDs returns the largest head or tail id plus one, or 0 for an
// empty triple set.
func NumEntityIDs(triples []Triple) int64 {
	maxID := int64(-1)
	for _, t := range triples {
		maxID = max(maxID, t.Head, t.Tail)
	}
	return maxID + 1
}

// NumRelationIDs returns the largest relation id plus one, or 0 for an
// empty triple set.
func NumRelationIDs(triples []Triple) int64 {
	maxID := int64(-1)
	for _, t := range triples {
		maxID = max(maxID, t.Relation)
	}
	return maxID + 1
}
