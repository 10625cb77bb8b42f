// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sinks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// itemPutter is the part of *dynamodb.Client the sink uses.
type itemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// sortKeyLayout is fixed width so sort keys order by time.
const sortKeyLayout = "2006-01-02T15:04:05.000000000Z"

// dynamoPoint is the item layout: partition key track_id, sort key ts.
// ts is the fix time followed by a per-run sequence number, so fixes
// sharing a timestamp do not overwrite each other.
type dynamoPoint struct {
	TrackID string  `dynamodbav:"track_id"`
	SortKey string  `dynamodbav:"ts"`
	Time    string  `dynamodbav:"time"`
	Device  string  `dynamodbav:"device"`
	Cell    string  `dynamodbav:"s2_cell_id"`
	Fix     int     `dynamodbav:"fix"`
	Lat     float64 `dynamodbav:"lat"`
	Lon     float64 `dynamodbav:"lon"`
	Speed   float64 `dynamodbav:"speed"`
	Alt     float64 `dynamodbav:"alt"`
	Track   float64 `dynamodbav:"track"`
	Sep     float64 `dynamodbav:"sep"`
}

// DynamoSink stores each fix as an item in a DynamoDB table.
type DynamoSink struct {
	client    itemPutter
	tableName string
	seq       atomic.Uint64
}

// NewDynamoSink loads the default AWS configuration (environment, shared
// config, instance role) and targets tableName.
func NewDynamoSink(ctx context.Context, region, tableName string) (*DynamoSink, error) {
	var optFns []func(*config.LoadOptions) error
	if region != "" {
		optFns = append(optFns, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &DynamoSink{client: dynamodb.NewFromConfig(cfg), tableName: tableName}, nil
}

func (s *DynamoSink) Name() string { return "dynamodb" }

func (s *DynamoSink) Write(ctx context.Context, rec Record) error {
	f := rec.Fix
	ts := timestampOrNow(f.Time).UTC()
	item, err := attributevalue.MarshalMap(dynamoPoint{
		TrackID: string(rec.TrackID),
		SortKey: fmt.Sprintf("%s#%010d", ts.Format(sortKeyLayout), s.seq.Add(1)),
		Time:    ts.Format(time.RFC3339Nano),
		Device:  rec.DeviceID,
		Cell:    rec.Cell,
		Fix:     int(f.Mode),
		Lat:     f.Latitude,
		Lon:     f.Longitude,
		Speed:   f.Speed,
		Alt:     f.Altitude,
		Track:   f.Heading,
		Sep:     f.EstimatedError,
	})
	if err != nil {
		return fmt.Errorf("dynamodb marshal: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put %s: %w", s.tableName, err)
	}
	return nil
}

func (s *DynamoSink) Close() error { return nil }
