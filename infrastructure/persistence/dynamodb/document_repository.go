package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"braindump/application/ports"
	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	pkgerrors "braindump/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	entityType = "BRAINDUMP"
	gsiName    = "GSI1"
	metadataSK = "METADATA"
)

// API is the subset of the DynamoDB client the repository uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DocumentRepository stores each brain dump as one item keyed by its owner.
// A GSI keyed by document id serves lookups that only know the id.
type DocumentRepository struct {
	client    API
	tableName string
	logger    *zap.Logger

	// document id -> owner, so saves skip the GSI round trip
	owners sync.Map
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(client API, tableName string, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// documentItem represents the DynamoDB item structure for a brain dump.
// Nodes and edges are kept as JSON strings.
type documentItem struct {
	PK                   string   `dynamodbav:"PK"`
	SK                   string   `dynamodbav:"SK"`
	GSI1PK               string   `dynamodbav:"GSI1PK"`
	GSI1SK               string   `dynamodbav:"GSI1SK"`
	EntityType           string   `dynamodbav:"EntityType"`
	DocumentID           string   `dynamodbav:"DocumentID"`
	UserID               string   `dynamodbav:"UserID"`
	Title                string   `dynamodbav:"Title"`
	RawText              string   `dynamodbav:"RawText"`
	Nodes                string   `dynamodbav:"Nodes"`
	Edges                string   `dynamodbav:"Edges"`
	Categories           []string `dynamodbav:"Categories"`
	Type                 string   `dynamodbav:"Type"`
	ParentBrainDumpID    string   `dynamodbav:"ParentBrainDumpID,omitempty"`
	OriginNodeID         string   `dynamodbav:"OriginNodeID,omitempty"`
	OriginNodeType       string   `dynamodbav:"OriginNodeType,omitempty"`
	OriginalParentNodeID string   `dynamodbav:"OriginalParentNodeID,omitempty"`
	TopicFocus           string   `dynamodbav:"TopicFocus,omitempty"`
	NodeCount            int      `dynamodbav:"NodeCount"`
	EdgeCount            int      `dynamodbav:"EdgeCount"`
	CreatedAt            string   `dynamodbav:"CreatedAt"`
	UpdatedAt            string   `dynamodbav:"UpdatedAt"`
	Version              int      `dynamodbav:"Version"`
}

func userPK(userID string) string { return fmt.Sprintf("USER#%s", userID) }
func dumpSK(id string) string     { return fmt.Sprintf("DUMP#%s", id) }
func dumpGSI(id string) string    { return fmt.Sprintf("DUMPID#%s", id) }

// LoadDocument fetches a brain dump by id
func (r *DocumentRepository) LoadDocument(ctx context.Context, id string) (*aggregates.DocumentRecord, error) {
	userID, err := r.ownerOf(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       key(userID, id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if result.Item == nil {
		r.owners.Delete(id)
		return nil, pkgerrors.NewNotFoundError("document " + id)
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return item.toRecord()
}

// SaveDocument updates the attributes present in patch. Writes carrying an
// older version than the stored one are rejected as conflicts.
func (r *DocumentRepository) SaveDocument(ctx context.Context, id string, patch ports.DocumentPatch) error {
	userID, err := r.ownerOf(ctx, id)
	if err != nil {
		return err
	}

	update := expression.Set(expression.Name("Version"), expression.Value(patch.Version))
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	update = update.Set(expression.Name("UpdatedAt"), expression.Value(updatedAt.UTC().Format(time.RFC3339Nano)))

	if patch.Title != nil {
		update = update.Set(expression.Name("Title"), expression.Value(*patch.Title))
	}
	if patch.RawText != nil {
		update = update.Set(expression.Name("RawText"), expression.Value(*patch.RawText))
	}
	if patch.Categories != nil {
		update = update.Set(expression.Name("Categories"), expression.Value(*patch.Categories))
	}
	if patch.Graph != nil {
		nodes, edges, err := encodeGraph(patch.Graph.Nodes, patch.Graph.Edges)
		if err != nil {
			return err
		}
		update = update.
			Set(expression.Name("Nodes"), expression.Value(nodes)).
			Set(expression.Name("Edges"), expression.Value(edges)).
			Set(expression.Name("NodeCount"), expression.Value(len(patch.Graph.Nodes))).
			Set(expression.Name("EdgeCount"), expression.Value(len(patch.Graph.Edges)))
	}

	condition := expression.AttributeExists(expression.Name("PK")).
		And(expression.LessThanEqual(expression.Name("Version"), expression.Value(patch.Version)))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key(userID, id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewConflictError(fmt.Sprintf("document %s is missing or newer than version %d", id, patch.Version))
		}
		r.logger.Error("Failed to save document to DynamoDB",
			zap.String("documentID", id),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save document: %w", err)
	}

	r.logger.Debug("Saved document to DynamoDB",
		zap.String("documentID", id),
		zap.Int("version", patch.Version),
	)
	return nil
}

// CreateDocument puts a new item, failing if the key is taken
func (r *DocumentRepository) CreateDocument(ctx context.Context, record aggregates.DocumentRecord) (*aggregates.DocumentRecord, error) {
	if record.ID == "" || record.UserID == "" {
		return nil, pkgerrors.NewValidationError("document id and user id are required")
	}

	item, err := itemFromRecord(record)
	if err != nil {
		return nil, err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, pkgerrors.NewConflictError("document " + record.ID + " already exists")
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	r.owners.Store(record.ID, record.UserID)
	r.logger.Info("Created document in DynamoDB",
		zap.String("documentID", record.ID),
		zap.String("userID", record.UserID),
		zap.Int("nodeCount", len(record.Nodes)),
	)

	created := record
	return &created, nil
}

// DeleteDocument removes a brain dump; unknown ids are ignored
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	userID, err := r.ownerOf(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       key(userID, id),
	}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	r.owners.Delete(id)
	return nil
}

// ListDocuments queries the owner's partition, projecting summary attributes
func (r *DocumentRepository) ListDocuments(ctx context.Context, userID string) ([]ports.DocumentSummary, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith("DUMP#"))
	projection := expression.NamesList(
		expression.Name("DocumentID"),
		expression.Name("UserID"),
		expression.Name("Title"),
		expression.Name("Type"),
		expression.Name("ParentBrainDumpID"),
		expression.Name("NodeCount"),
		expression.Name("EdgeCount"),
		expression.Name("UpdatedAt"),
	)

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyEx).
		WithProjection(projection).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	out := make([]ports.DocumentSummary, 0)
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}

		for _, av := range result.Items {
			var item documentItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				r.logger.Warn("Skipping unreadable document item", zap.Error(err))
				continue
			}
			r.owners.Store(item.DocumentID, item.UserID)
			out = append(out, item.toSummary())
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// ownerOf resolves the partition a document lives in
func (r *DocumentRepository) ownerOf(ctx context.Context, id string) (string, error) {
	if owner, ok := r.owners.Load(id); ok {
		return owner.(string), nil
	}

	keyEx := expression.Key("GSI1PK").Equal(expression.Value(dumpGSI(id))).
		And(expression.Key("GSI1SK").Equal(expression.Value(metadataSK)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return "", fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(gsiName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("failed to look up document: %w", err)
	}
	if len(result.Items) == 0 {
		return "", pkgerrors.NewNotFoundError("document " + id)
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return "", fmt.Errorf("failed to unmarshal document key: %w", err)
	}
	r.owners.Store(id, item.UserID)
	return item.UserID, nil
}

func key(userID, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
		"SK": &types.AttributeValueMemberS{Value: dumpSK(id)},
	}
}

func itemFromRecord(rec aggregates.DocumentRecord) (documentItem, error) {
	nodes, edges, err := encodeGraph(rec.Nodes, rec.Edges)
	if err != nil {
		return documentItem{}, err
	}
	return documentItem{
		PK:                   userPK(rec.UserID),
		SK:                   dumpSK(rec.ID),
		GSI1PK:               dumpGSI(rec.ID),
		GSI1SK:               metadataSK,
		EntityType:           entityType,
		DocumentID:           rec.ID,
		UserID:               rec.UserID,
		Title:                rec.Title,
		RawText:              rec.RawText,
		Nodes:                nodes,
		Edges:                edges,
		Categories:           rec.Categories,
		Type:                 string(rec.Type),
		ParentBrainDumpID:    rec.ParentBrainDumpID,
		OriginNodeID:         rec.OriginNodeID,
		OriginNodeType:       string(rec.OriginNodeType),
		OriginalParentNodeID: rec.OriginalParentNodeID,
		TopicFocus:           rec.TopicFocus,
		NodeCount:            len(rec.Nodes),
		EdgeCount:            len(rec.Edges),
		CreatedAt:            rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:            rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Version:              rec.Version,
	}, nil
}

func (item documentItem) toRecord() (*aggregates.DocumentRecord, error) {
	rec := &aggregates.DocumentRecord{
		ID:                   item.DocumentID,
		UserID:               item.UserID,
		Title:                item.Title,
		RawText:              item.RawText,
		Categories:           item.Categories,
		Type:                 aggregates.DocumentType(item.Type),
		ParentBrainDumpID:    item.ParentBrainDumpID,
		OriginNodeID:         item.OriginNodeID,
		OriginNodeType:       entities.NodeVariant(item.OriginNodeType),
		OriginalParentNodeID: item.OriginalParentNodeID,
		TopicFocus:           item.TopicFocus,
		CreatedAt:            parseTime(item.CreatedAt),
		UpdatedAt:            parseTime(item.UpdatedAt),
		Version:              item.Version,
	}
	if item.Nodes != "" {
		if err := json.Unmarshal([]byte(item.Nodes), &rec.Nodes); err != nil {
			return nil, fmt.Errorf("failed to decode nodes: %w", err)
		}
	}
	if item.Edges != "" {
		if err := json.Unmarshal([]byte(item.Edges), &rec.Edges); err != nil {
			return nil, fmt.Errorf("failed to decode edges: %w", err)
		}
	}
	return rec, nil
}

func (item documentItem) toSummary() ports.DocumentSummary {
	return ports.DocumentSummary{
		ID:                item.DocumentID,
		UserID:            item.UserID,
		Title:             item.Title,
		Type:              aggregates.DocumentType(item.Type),
		ParentBrainDumpID: item.ParentBrainDumpID,
		NodeCount:         item.NodeCount,
		EdgeCount:         item.EdgeCount,
		UpdatedAt:         parseTime(item.UpdatedAt),
	}
}

func encodeGraph(nodes []entities.Node, edges []entities.Edge) (string, string, error) {
	if nodes == nil {
		nodes = []entities.Node{}
	}
	if edges == nil {
		edges = []entities.Edge{}
	}
	n, err := json.Marshal(nodes)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode nodes: %w", err)
	}
	e, err := json.Marshal(edges)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode edges: %w", err)
	}
	return string(n), string(e), nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
