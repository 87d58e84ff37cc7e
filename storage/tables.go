package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"github.com/SzematPro/ai-task-manager/domain"
)

const maxUpdateAttempts = 3

type tableClient interface {
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
}

// Tables stores tasks in an Azure Storage table, one partition per owner.
type Tables struct {
	table tableClient
	now   func() time.Time
}

// NewTables creates a table-backed repository from the given connection string.
func NewTables(connStr, table string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Tables{table: svc.NewClient(table), now: time.Now}, nil
}

// EnsureTable creates the table, ignoring an existing one.
func (s *Tables) EnsureTable(ctx context.Context) error {
	_, err := s.table.CreateTable(ctx, nil)
	var respErr *azcore.ResponseError
	if err != nil && !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
		return err
	}
	return nil
}

// List retrieves all tasks for the provided owner.
func (s *Tables) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + strings.ReplaceAll(ownerID, "'", "''") + "'"
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			t, err := decodeTaskEntity(raw)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (s *Tables) Insert(ctx context.Context, task domain.Task) (domain.Task, error) {
	payload, err := sonic.Marshal(newTaskEntity(task))
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.table.AddEntity(ctx, payload, nil); err != nil {
		if statusCode(err) == http.StatusConflict {
			return domain.Task{}, ErrDuplicate
		}
		return domain.Task{}, err
	}
	return task, nil
}

// Update reads the row, merges u and replaces the row under its ETag,
// retrying when another writer got there first.
func (s *Tables) Update(ctx context.Context, ownerID, id string, u domain.TaskUpdate) (domain.Task, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		resp, err := s.table.GetEntity(ctx, ownerID, id, nil)
		if err != nil {
			if statusCode(err) == http.StatusNotFound {
				return domain.Task{}, ErrNotFound
			}
			return domain.Task{}, err
		}
		current, err := decodeTaskEntity(resp.Value)
		if err != nil {
			return domain.Task{}, err
		}
		updated := u.Apply(current, s.now().UTC())
		payload, err := sonic.Marshal(newTaskEntity(updated))
		if err != nil {
			return domain.Task{}, err
		}
		et := resp.ETag
		_, err = s.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
		switch statusCode(err) {
		case 0:
			if err != nil {
				return domain.Task{}, err
			}
			return updated, nil
		case http.StatusPreconditionFailed:
			continue
		case http.StatusNotFound:
			return domain.Task{}, ErrNotFound
		default:
			return domain.Task{}, err
		}
	}
	return domain.Task{}, ErrConflict
}

func (s *Tables) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.table.DeleteEntity(ctx, ownerID, id, nil); err != nil {
		if statusCode(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}
