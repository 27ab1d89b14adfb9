package services

import (
	"strings"

	"braindump/domain/config"
	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
)

// MatchType tells how a candidate matched the query
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// Match is one duplicate-concept candidate found across brain dumps
type Match struct {
	Node           entities.Node `json:"node"`
	DocumentID     string        `json:"documentId"`
	DocumentTitle  string        `json:"documentTitle"`
	MatchedSynonym string        `json:"matchedSynonym"`
	MatchType      MatchType     `json:"matchType"`
}

// SynonymMatcher finds nodes whose label or synonyms match a piece of text
type SynonymMatcher struct {
	minFuzzyLength int
}

// NewSynonymMatcher creates a new synonym matcher
func NewSynonymMatcher(cfg *config.DomainConfig) *SynonymMatcher {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SynonymMatcher{minFuzzyLength: cfg.MinFuzzyQueryLength}
}

// FindMatches searches every document for nodes matching input.
// Exact matches (case-insensitive equality with the label or a synonym)
// win outright; substring matches are only tried when there is no exact
// match and the trimmed input is long enough. Placeholders are skipped.
func (m *SynonymMatcher) FindMatches(input string, documents []*aggregates.Document) []Match {
	query := strings.TrimSpace(input)
	if query == "" {
		return nil
	}

	exact := m.search(documents, MatchExact, func(term string) bool {
		return strings.EqualFold(term, query)
	})
	if len(exact) > 0 {
		return exact
	}

	if len([]rune(query)) < m.minFuzzyLength {
		return nil
	}

	needle := strings.ToLower(query)
	return m.search(documents, MatchFuzzy, func(term string) bool {
		return strings.Contains(strings.ToLower(term), needle)
	})
}

func (m *SynonymMatcher) search(documents []*aggregates.Document, kind MatchType, matches func(string) bool) []Match {
	var out []Match
	for _, doc := range documents {
		if doc == nil {
			continue
		}
		for _, node := range doc.Nodes() {
			if !isMatchCandidate(node) {
				continue
			}
			term, ok := firstMatchingTerm(node, matches)
			if !ok {
				continue
			}
			out = append(out, Match{
				Node:           node,
				DocumentID:     doc.ID(),
				DocumentTitle:  doc.Title(),
				MatchedSynonym: term,
				MatchType:      kind,
			})
		}
	}
	return out
}

func isMatchCandidate(n entities.Node) bool {
	return n.Type.IsSearchable() && !n.IsPlaceholder()
}

// firstMatchingTerm checks the label, then synonyms in order
func firstMatchingTerm(n entities.Node, matches func(string) bool) (string, bool) {
	if n.Data.Label != "" && matches(n.Data.Label) {
		return n.Data.Label, true
	}
	for _, s := range n.Data.Synonyms {
		if s != "" && matches(s) {
			return s, true
		}
	}
	return "", false
}

// CreateInstance copies a prototype into a new node at position. The copy
// points back at the prototype and carries no instance list or ghost fields.
func CreateInstance(prototype entities.Node, position valueobjects.Position) entities.Node {
	data := prototype.Data.Clone().WithoutDerived()
	data.IsInstance = true
	data.PrototypeID = prototype.ID
	data.Instances = nil
	data.IsGhost = false
	data.ReferencedNodeID = ""
	data.HasTopicBrainDump = false
	data.TopicBrainDumpID = ""
	data.IsCollapsed = false

	variant := prototype.Type
	if variant == entities.VariantRoot {
		variant = entities.VariantThought
	}

	return entities.Node{
		ID:       valueobjects.NewNodeID(),
		Type:     variant,
		Position: position,
		Data:     data,
	}
}

// AddInstanceToPrototype appends instanceID to the prototype's instance list.
// Duplicates are not filtered.
func AddInstanceToPrototype(prototype entities.Node, instanceID string) entities.Node {
	out := prototype.Clone()
	out.Data.Instances = append(out.Data.Instances, instanceID)
	return out
}

// CreateGhost builds a dashed placeholder weakly referencing target
func CreateGhost(target entities.Node, position valueobjects.Position) entities.Node {
	return entities.Node{
		ID:       valueobjects.NewNodeID(),
		Type:     entities.VariantGhost,
		Position: position,
		Data: entities.NodeData{
			Label:            target.Data.Label,
			Category:         target.Data.Category,
			LayoutMode:       entities.LayoutFreeform,
			IsGhost:          true,
			ReferencedNodeID: target.ID,
			Style:            copyStyle(entities.GhostStyle),
		},
	}
}

// CreateLinkNode builds a node weakly referencing another brain dump
func CreateLinkNode(target *aggregates.Document, position valueobjects.Position) entities.Node {
	return entities.Node{
		ID:       valueobjects.NewNodeID(),
		Type:     entities.VariantLink,
		Position: position,
		Data: entities.NodeData{
			Label:             target.Title(),
			LayoutMode:        entities.LayoutFreeform,
			IsLink:            true,
			LinkedBrainDumpID: target.ID(),
		},
	}
}

func copyStyle(style map[string]string) map[string]string {
	out := make(map[string]string, len(style))
	for k, v := range style {
		out[k] = v
	}
	return out
}
