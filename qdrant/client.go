// Package qdrant provides a gRPC client for interacting with a Qdrant vector database.
// It handles collection management and CRUD operations for labeled text embeddings,
// and converts stored points back into a dataset for steering.
package qdrant

import (
	"context"
	"fmt"

	"github.com/alDuncanson/manifold/dataset"
	"github.com/alDuncanson/manifold/embedding"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const scrollPageSize = 1000

// Client wraps gRPC connections to a Qdrant vector database instance.
// It provides methods for upserting, retrieving, and deleting vector points.
type Client struct {
	connection        *grpc.ClientConn
	pointsClient      pb.PointsClient
	collectionsClient pb.CollectionsClient
	collectionName    string
	vectorSize        uint64
}

// Point represents a single vector embedding with its associated metadata.
// Each point has a unique ID, the original text that was embedded, its class
// label and the embedding vector.
type Point struct {
	ID     string
	Text   string
	Label  int
	Vector []float32
}

// NewClient creates a new Qdrant client connected to the specified address.
// It initializes the gRPC connection and ensures the target collection exists,
// creating it with cosine distance if necessary.
func NewClient(ctx context.Context, address, collectionName string, vectorSize uint64) (*Client, error) {
	connection, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	client := &Client{
		connection:        connection,
		pointsClient:      pb.NewPointsClient(connection),
		collectionsClient: pb.NewCollectionsClient(connection),
		collectionName:    collectionName,
		vectorSize:        vectorSize,
	}

	if err := client.ensureCollectionExists(ctx); err != nil {
		connection.Close()
		return nil, err
	}

	return client, nil
}

// ensureCollectionExists checks if the target collection exists in Qdrant.
// If it doesn't exist, it creates a new collection configured for cosine similarity.
func (client *Client) ensureCollectionExists(ctx context.Context) error {
	_, err := client.collectionsClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: client.collectionName,
	})
	if err == nil {
		return nil
	}

	_, err = client.collectionsClient.Create(ctx, &pb.CreateCollection{
		CollectionName: client.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     client.vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return nil
}

// Upsert inserts or updates points in the collection in a single request.
func (client *Client) Upsert(ctx context.Context, points ...Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*pb.PointStruct, len(points))
	for i, point := range points {
		if uint64(len(point.Vector)) != client.vectorSize {
			return fmt.Errorf("point %s has %d dimensions, collection expects %d", point.ID, len(point.Vector), client.vectorSize)
		}
		structs[i] = toPointStruct(point)
	}

	_, err := client.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: client.collectionName,
		Points:         structs,
	})
	return err
}

// GetAll retrieves every vector point from the collection, scrolling page by page.
func (client *Client) GetAll(ctx context.Context) ([]Point, error) {
	var points []Point
	var offset *pb.PointId

	for {
		scrollResponse, err := client.pointsClient.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: client.collectionName,
			Offset:         offset,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
			WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
			Limit:          pb.PtrOf(uint32(scrollPageSize)),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", err)
		}

		for _, retrievedPoint := range scrollResponse.Result {
			points = append(points, fromRetrieved(retrievedPoint))
		}

		offset = scrollResponse.NextPageOffset
		if offset == nil {
			return points, nil
		}
	}
}

// Delete removes a vector point from the collection by its UUID.
func (client *Client) Delete(ctx context.Context, pointID string) error {
	pointSelector := &pb.PointsSelector{
		PointsSelectorOneOf: &pb.PointsSelector_Points{
			Points: &pb.PointsIdsList{
				Ids: []*pb.PointId{
					{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID}},
				},
			},
		},
	}

	_, err := client.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: client.collectionName,
		Points:         pointSelector,
	})
	return err
}

// Close terminates the gRPC connection to the Qdrant server.
func (client *Client) Close() error {
	return client.connection.Close()
}

func toPointStruct(point Point) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: point.ID},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: point.Vector},
			},
		},
		Payload: map[string]*pb.Value{
			"text":  {Kind: &pb.Value_StringValue{StringValue: point.Text}},
			"label": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(point.Label)}},
		},
	}
}

// fromRetrieved reads a stored point. Points written without a label payload
// come back Unlabeled.
func fromRetrieved(retrievedPoint *pb.RetrievedPoint) Point {
	point := Point{
		ID:    retrievedPoint.GetId().GetUuid(),
		Label: dataset.Unlabeled,
	}

	if textPayload, exists := retrievedPoint.Payload["text"]; exists {
		point.Text = textPayload.GetStringValue()
	}
	if labelPayload, exists := retrievedPoint.Payload["label"]; exists {
		if integer, ok := labelPayload.GetKind().(*pb.Value_IntegerValue); ok {
			point.Label = int(integer.IntegerValue)
		}
	}
	if vectorData := retrievedPoint.GetVectors().GetVector(); vectorData != nil {
		point.Vector = vectorData.Data
	}

	return point
}

// ToDataset converts stored points into a dataset, keeping their texts.
func ToDataset(points []Point) (*dataset.Dataset, error) {
	rows := make([][]float64, len(points))
	labels := make([]int, len(points))
	texts := make([]string, len(points))
	for i, point := range points {
		rows[i] = embedding.Float64s(point.Vector)
		labels[i] = point.Label
		texts[i] = point.Text
	}
	return dataset.New(rows, labels, texts)
}
