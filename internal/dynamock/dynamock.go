// Package dynamock is an in-memory stand-in for the DynamoDB client used in
// tests. It understands just the expression shapes this codebase issues:
// attribute_exists / attribute_not_exists guards, single-attribute equality
// conditions, SET update expressions, main-key queries with sort-key paging,
// and equality queries against registered secondary indexes.
package dynamock

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type schema struct {
	pk string
	sk string // empty when the table has no sort key
}

// DB holds tables of items keyed by their primary key. Safe for concurrent
// use.
type DB struct {
	mu      sync.Mutex
	schemas map[string]schema
	indexes map[string]map[string]string // table -> index name -> hash attribute
	tables  map[string]map[string]map[string]types.AttributeValue
}

// New returns an empty DB. Register tables with AddTable before use.
func New() *DB {
	return &DB{
		schemas: map[string]schema{},
		indexes: map[string]map[string]string{},
		tables:  map[string]map[string]map[string]types.AttributeValue{},
	}
}

// AddTable registers a table and its key schema. Pass sk "" for a table with
// a simple primary key.
func (d *DB) AddTable(name, pk, sk string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schemas[name] = schema{pk: pk, sk: sk}
	d.tables[name] = map[string]map[string]types.AttributeValue{}
}

// AddIndex registers a secondary index resolved by attribute equality.
func (d *DB) AddIndex(table, index, hashAttr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexes[table] == nil {
		d.indexes[table] = map[string]string{}
	}
	d.indexes[table][index] = hashAttr
}

// Len reports how many items a table holds.
func (d *DB) Len(table string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tables[table])
}

// Raw returns the stored item for direct assertions in tests, or nil.
func (d *DB) Raw(table, pk string) map[string]types.AttributeValue {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, item := range d.tables[table] {
		sch := d.schemas[table]
		if strValue(item[sch.pk]) == pk {
			return item
		}
	}
	return nil
}

func (d *DB) itemKey(table string, item map[string]types.AttributeValue) (string, error) {
	sch, ok := d.schemas[table]
	if !ok {
		return "", errors.New("dynamock: unknown table " + table)
	}
	pkv := strValue(item[sch.pk])
	if pkv == "" {
		return "", errors.New("dynamock: missing partition key " + sch.pk)
	}
	if sch.sk == "" {
		return pkv, nil
	}
	skv := strValue(item[sch.sk])
	if skv == "" {
		return "", errors.New("dynamock: missing sort key " + sch.sk)
	}
	return pkv + "\x00" + skv, nil
}

func strValue(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// checkCondition evaluates the condition expressions this codebase uses.
func checkCondition(cond string, names map[string]string, values map[string]types.AttributeValue, existing map[string]types.AttributeValue) bool {
	cond = strings.TrimSpace(cond)
	switch {
	case strings.HasPrefix(cond, "attribute_not_exists("):
		return existing == nil
	case strings.HasPrefix(cond, "attribute_exists("):
		return existing != nil
	}
	// single equality: "<path> = :<value>"
	parts := strings.SplitN(cond, "=", 2)
	if len(parts) != 2 {
		return false
	}
	path := strings.TrimSpace(parts[0])
	if repl, ok := names[path]; ok {
		path = repl
	}
	ref := strings.TrimSpace(parts[1])
	want, ok := values[ref]
	if !ok || existing == nil {
		return false
	}
	return strValue(existing[path]) == strValue(want)
}

// applySet applies a "SET a = :x, b = :y" update expression in place.
func applySet(expr string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) {
	expr = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(expr), "SET"))
	for _, clause := range strings.Split(expr, ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			continue
		}
		path := strings.TrimSpace(parts[0])
		if repl, ok := names[path]; ok {
			path = repl
		}
		ref := strings.TrimSpace(parts[1])
		if v, ok := values[ref]; ok {
			item[path] = v
		}
	}
}

func (d *DB) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table := *params.TableName
	key, err := d.itemKey(table, params.Item)
	if err != nil {
		return nil, err
	}
	existing := d.tables[table][key]
	if params.ConditionExpression != nil {
		if !checkCondition(*params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	d.tables[table][key] = cloneItem(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (d *DB) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table := *params.TableName
	key, err := d.itemKey(table, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := d.tables[table][key]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: cloneItem(item)}, nil
}

func (d *DB) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table := *params.TableName
	key, err := d.itemKey(table, params.Key)
	if err != nil {
		return nil, err
	}
	existing := d.tables[table][key]
	if params.ConditionExpression != nil {
		if !checkCondition(*params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	if existing == nil {
		existing = cloneItem(params.Key)
	}
	if params.UpdateExpression != nil {
		applySet(*params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing)
	}
	d.tables[table][key] = existing
	return &dyn.UpdateItemOutput{Attributes: cloneItem(existing)}, nil
}

func (d *DB) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table := *params.TableName
	sch := d.schemas[table]

	attr, ref, err := parseEquality(*params.KeyConditionExpression)
	if err != nil {
		return nil, err
	}
	want := strValue(params.ExpressionAttributeValues[ref])

	if params.IndexName != nil {
		hashAttr, ok := d.indexes[table][*params.IndexName]
		if !ok || hashAttr != attr {
			return nil, errors.New("dynamock: unknown index " + *params.IndexName)
		}
		var items []map[string]types.AttributeValue
		for _, item := range d.tables[table] {
			if strValue(item[attr]) == want {
				items = append(items, cloneItem(item))
			}
		}
		return &dyn.QueryOutput{Items: items, Count: int32(len(items))}, nil
	}

	if attr != sch.pk {
		return nil, errors.New("dynamock: key condition must target the partition key")
	}
	var matched []map[string]types.AttributeValue
	for _, item := range d.tables[table] {
		if strValue(item[sch.pk]) == want {
			matched = append(matched, item)
		}
	}
	if sch.sk != "" {
		sort.Slice(matched, func(i, j int) bool {
			return strValue(matched[i][sch.sk]) < strValue(matched[j][sch.sk])
		})
	}
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	// resume after ExclusiveStartKey
	start := 0
	if params.ExclusiveStartKey != nil && sch.sk != "" {
		after := strValue(params.ExclusiveStartKey[sch.sk])
		for i, item := range matched {
			if strValue(item[sch.sk]) == after {
				start = i + 1
				break
			}
		}
	}
	end := len(matched)
	if params.Limit != nil && start+int(*params.Limit) < end {
		end = start + int(*params.Limit)
	}

	out := &dyn.QueryOutput{}
	for _, item := range matched[start:end] {
		out.Items = append(out.Items, cloneItem(item))
	}
	out.Count = int32(len(out.Items))
	if end < len(matched) && len(out.Items) > 0 {
		last := matched[end-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			sch.pk: last[sch.pk],
			sch.sk: last[sch.sk],
		}
	}
	return out, nil
}

func (d *DB) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table := *params.TableName
	out := &dyn.ScanOutput{}
	for _, item := range d.tables[table] {
		out.Items = append(out.Items, cloneItem(item))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

func (d *DB) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table := *params.TableName
	key, err := d.itemKey(table, params.Key)
	if err != nil {
		return nil, err
	}
	delete(d.tables[table], key)
	return &dyn.DeleteItemOutput{}, nil
}

// TransactWriteItems validates every condition first and only then applies
// the writes, reporting per-item cancellation reasons the way DynamoDB does.
func (d *DB) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, it := range params.TransactItems {
		code := "None"
		switch {
		case it.Put != nil:
			if !d.transactCondOK(it.Put.TableName, it.Put.Item, it.Put.ConditionExpression, it.Put.ExpressionAttributeNames, it.Put.ExpressionAttributeValues) {
				code = "ConditionalCheckFailed"
			}
		case it.Update != nil:
			if !d.transactCondOK(it.Update.TableName, it.Update.Key, it.Update.ConditionExpression, it.Update.ExpressionAttributeNames, it.Update.ExpressionAttributeValues) {
				code = "ConditionalCheckFailed"
			}
		case it.Delete != nil:
			if !d.transactCondOK(it.Delete.TableName, it.Delete.Key, it.Delete.ConditionExpression, it.Delete.ExpressionAttributeNames, it.Delete.ExpressionAttributeValues) {
				code = "ConditionalCheckFailed"
			}
		}
		if code != "None" {
			failed = true
		}
		c := code
		reasons[i] = types.CancellationReason{Code: &c}
	}
	if failed {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}

	for _, it := range params.TransactItems {
		switch {
		case it.Put != nil:
			table := *it.Put.TableName
			key, err := d.itemKey(table, it.Put.Item)
			if err != nil {
				return nil, err
			}
			d.tables[table][key] = cloneItem(it.Put.Item)
		case it.Update != nil:
			table := *it.Update.TableName
			key, err := d.itemKey(table, it.Update.Key)
			if err != nil {
				return nil, err
			}
			existing := d.tables[table][key]
			if existing == nil {
				existing = cloneItem(it.Update.Key)
			}
			if it.Update.UpdateExpression != nil {
				applySet(*it.Update.UpdateExpression, it.Update.ExpressionAttributeNames, it.Update.ExpressionAttributeValues, existing)
			}
			d.tables[table][key] = existing
		case it.Delete != nil:
			table := *it.Delete.TableName
			key, err := d.itemKey(table, it.Delete.Key)
			if err != nil {
				return nil, err
			}
			delete(d.tables[table], key)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (d *DB) transactCondOK(tableName *string, keyOrItem map[string]types.AttributeValue, cond *string, names map[string]string, values map[string]types.AttributeValue) bool {
	if cond == nil {
		return true
	}
	key, err := d.itemKey(*tableName, keyOrItem)
	if err != nil {
		return false
	}
	existing := d.tables[*tableName][key]
	return checkCondition(*cond, names, values, existing)
}

func parseEquality(expr string) (attr, valueRef string, err error) {
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return "", "", errors.New("dynamock: unsupported key condition " + expr)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func cloneItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
