package handlers

import (
	"braindump/application/commands"
	"braindump/application/commands/bus"
)

// Set groups every command handler so they can be registered together
type Set struct {
	Nodes    *NodeHandler
	Edges    *EdgeHandler
	Entries  *EntryHandler
	Topics   *TopicHandler
	Synonyms *SynonymHandler
}

// Register wires each command type to its handler, wrapped by pipeline
func Register(b *bus.CommandBus, pipeline *bus.Pipeline, set Set) error {
	routes := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{&commands.AddNodeCommand{}, bus.Typed(set.Nodes.HandleAddNode)},
		{&commands.UpdateNodeCommand{}, bus.Typed(set.Nodes.HandleUpdateNode)},
		{&commands.MoveNodeCommand{}, bus.Typed(set.Nodes.HandleMoveNode)},
		{&commands.DeleteNodeCommand{}, bus.Typed(set.Nodes.HandleDeleteNode)},
		{&commands.ToggleCollapseCommand{}, bus.Typed(set.Nodes.HandleToggleCollapse)},
		{&commands.SetLayoutModeCommand{}, bus.Typed(set.Nodes.HandleSetLayoutMode)},
		{&commands.AddChildCommand{}, bus.Typed(set.Nodes.HandleAddChild)},
		{&commands.ApplyLayoutCommand{}, bus.Typed(set.Nodes.HandleApplyLayout)},
		{&commands.AddEdgeCommand{}, bus.Typed(set.Edges.HandleAddEdge)},
		{&commands.DeleteEdgeCommand{}, bus.Typed(set.Edges.HandleDeleteEdge)},
		{&commands.CreateEntryCommand{}, bus.Typed(set.Entries.HandleCreateEntry)},
		{&commands.UpdateEntryCommand{}, bus.Typed(set.Entries.HandleUpdateEntry)},
		{&commands.DeleteEntryCommand{}, bus.Typed(set.Entries.HandleDeleteEntry)},
		{&commands.SaveEntryCommand{}, bus.Typed(set.Entries.HandleSaveEntry)},
		{&commands.ExtractTopicCommand{}, bus.Typed(set.Topics.HandleExtractTopic)},
		{&commands.DissolveTopicCommand{}, bus.Typed(set.Topics.HandleDissolveTopic)},
		{&commands.MaterializeMatchCommand{}, bus.Typed(set.Synonyms.HandleMaterializeMatch)},
		{&commands.CreateLinkNodeCommand{}, bus.Typed(set.Synonyms.HandleCreateLinkNode)},
	}

	for _, r := range routes {
		handler := r.handler
		if pipeline != nil {
			handler = pipeline.Execute(handler)
		}
		if err := b.Register(r.cmd, handler); err != nil {
			return err
		}
	}
	return nil
}
