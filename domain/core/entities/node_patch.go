package entities

import "sort"

// NodePatch is a partial update of NodeData. Nil fields are left untouched;
// applying a patch is a shallow merge where the patch wins per key.
type NodePatch struct {
	Label       *string     `json:"label,omitempty"`
	Category    *string     `json:"category,omitempty"`
	Synonyms    *[]string   `json:"synonyms,omitempty"`
	IsCollapsed *bool       `json:"isCollapsed,omitempty"`
	LayoutMode  *LayoutMode `json:"layoutMode,omitempty"`

	HasTopicBrainDump *bool   `json:"hasTopicBrainDump,omitempty"`
	TopicBrainDumpID  *string `json:"topicBrainDumpId,omitempty"`

	IsGhost          *bool   `json:"isGhost,omitempty"`
	ReferencedNodeID *string `json:"referencedNodeId,omitempty"`

	IsInstance  *bool     `json:"isInstance,omitempty"`
	PrototypeID *string   `json:"prototypeId,omitempty"`
	Instances   *[]string `json:"instances,omitempty"`

	IsLink            *bool   `json:"isLink,omitempty"`
	LinkedBrainDumpID *string `json:"linkedBrainDumpId,omitempty"`

	Importance *int    `json:"importance,omitempty"`
	Urgency    *int    `json:"urgency,omitempty"`
	DueDate    *string `json:"dueDate,omitempty"`

	// An empty map clears the style
	Style *map[string]string `json:"style,omitempty"`
}

// Apply merges the patch into data and returns the result
func (p NodePatch) Apply(data NodeData) NodeData {
	out := data.Clone()

	if p.Label != nil {
		out.Label = *p.Label
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Synonyms != nil {
		out.Synonyms = cloneStrings(*p.Synonyms)
	}
	if p.IsCollapsed != nil {
		out.IsCollapsed = *p.IsCollapsed
	}
	if p.LayoutMode != nil {
		out.LayoutMode = *p.LayoutMode
	}
	if p.HasTopicBrainDump != nil {
		out.HasTopicBrainDump = *p.HasTopicBrainDump
	}
	if p.TopicBrainDumpID != nil {
		out.TopicBrainDumpID = *p.TopicBrainDumpID
	}
	if p.IsGhost != nil {
		out.IsGhost = *p.IsGhost
	}
	if p.ReferencedNodeID != nil {
		out.ReferencedNodeID = *p.ReferencedNodeID
	}
	if p.IsInstance != nil {
		out.IsInstance = *p.IsInstance
	}
	if p.PrototypeID != nil {
		out.PrototypeID = *p.PrototypeID
	}
	if p.Instances != nil {
		out.Instances = cloneStrings(*p.Instances)
	}
	if p.IsLink != nil {
		out.IsLink = *p.IsLink
	}
	if p.LinkedBrainDumpID != nil {
		out.LinkedBrainDumpID = *p.LinkedBrainDumpID
	}
	if p.Importance != nil {
		v := *p.Importance
		out.Importance = &v
	}
	if p.Urgency != nil {
		v := *p.Urgency
		out.Urgency = &v
	}
	if p.DueDate != nil {
		out.DueDate = *p.DueDate
	}
	if p.Style != nil {
		if len(*p.Style) == 0 {
			out.Style = nil
		} else {
			style := make(map[string]string, len(*p.Style))
			for k, v := range *p.Style {
				style[k] = v
			}
			out.Style = style
		}
	}

	return out
}

// IsEmpty reports whether the patch changes nothing
func (p NodePatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the data keys the patch touches, sorted
func (p NodePatch) Fields() []string {
	set := map[string]bool{
		"label":             p.Label != nil,
		"category":          p.Category != nil,
		"synonyms":          p.Synonyms != nil,
		"isCollapsed":       p.IsCollapsed != nil,
		"layoutMode":        p.LayoutMode != nil,
		"hasTopicBrainDump": p.HasTopicBrainDump != nil,
		"topicBrainDumpId":  p.TopicBrainDumpID != nil,
		"isGhost":           p.IsGhost != nil,
		"referencedNodeId":  p.ReferencedNodeID != nil,
		"isInstance":        p.IsInstance != nil,
		"prototypeId":       p.PrototypeID != nil,
		"instances":         p.Instances != nil,
		"isLink":            p.IsLink != nil,
		"linkedBrainDumpId": p.LinkedBrainDumpID != nil,
		"importance":        p.Importance != nil,
		"urgency":           p.Urgency != nil,
		"dueDate":           p.DueDate != nil,
		"style":             p.Style != nil,
	}

	fields := make([]string, 0, len(set))
	for name, touched := range set {
		if touched {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}
