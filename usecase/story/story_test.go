package story

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/storytrack/backend/domain"
	"github.com/storytrack/backend/repository"
)

const (
	storyID  = "11111111-1111-1111-1111-111111111111"
	storyID2 = "22222222-2222-2222-2222-222222222222"
	taskID   = "33333333-3333-3333-3333-333333333333"
	taskID2  = "44444444-4444-4444-4444-444444444444"
)

var (
	member   = domain.Principal{SubjectID: "u-1", Roles: []domain.Role{domain.RoleMember}}
	admin    = domain.Principal{SubjectID: "u-2", Roles: []domain.Role{domain.RoleMember, domain.RoleAdmin}}
	stranger = domain.Principal{SubjectID: "u-3", Roles: nil}
)

// fakeStore applies events against in-memory state, mirroring the
// Postgres store's translation of event kinds into row mutations.
type fakeStore struct {
	stories map[string]*domain.Story
	events  []domain.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{stories: make(map[string]*domain.Story)}
}

func (f *fakeStore) StoryExists(_ context.Context, id string) (bool, error) {
	_, ok := f.stories[id]
	return ok, nil
}

func (f *fakeStore) TaskExists(_ context.Context, id string) (bool, error) {
	for _, story := range f.stories {
		if story.FindTask(id) != nil {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetStory(_ context.Context, id string) (*domain.Story, error) {
	story, ok := f.stories[id]
	if !ok {
		return nil, domain.NewStoryNotFound(id)
	}
	copied := *story
	copied.Tasks = append([]domain.Task(nil), story.Tasks...)
	return &copied, nil
}

func (f *fakeStore) ListStories(_ context.Context, pageSize int, cursor *repository.StoryCursor) (repository.StoryPage, error) {
	all := make([]domain.Story, 0, len(f.stories))
	for _, story := range f.stories {
		all = append(all, *story)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	start := 0
	if cursor != nil {
		for i, story := range all {
			if story.CreatedAt.After(cursor.CreatedAt) ||
				(story.CreatedAt.Equal(cursor.CreatedAt) && story.ID > cursor.ID) {
				start = i
				break
			}
			start = i + 1
		}
	}

	page := repository.StoryPage{}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	page.Stories = all[start:end]
	if end < len(all) {
		last := all[end-1]
		page.NextPageToken = repository.EncodeStoryCursor(repository.StoryCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (f *fakeStore) ListEvents(_ context.Context, aggregateID string) ([]domain.Event, error) {
	var events []domain.Event
	for _, event := range f.events {
		if event.AggregateID == aggregateID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *fakeStore) ApplyEvent(_ context.Context, event domain.Event) error {
	switch event.Type {
	case domain.TypeStoryCaptured:
		payload, err := event.StoryPayload()
		if err != nil {
			return err
		}
		f.stories[event.AggregateID] = &domain.Story{
			ID:          event.AggregateID,
			Title:       payload.Title,
			Description: payload.Description,
			CreatedAt:   event.CreatedAt,
		}
	case domain.TypeStoryRevised:
		payload, err := event.StoryPayload()
		if err != nil {
			return err
		}
		story, ok := f.stories[event.AggregateID]
		if !ok {
			return errors.New("update story affected 0 rows")
		}
		story.Revise(payload.Title, payload.Description, event.CreatedAt)
	case domain.TypeStoryRemoved:
		if _, ok := f.stories[event.AggregateID]; !ok {
			return errors.New("delete story affected 0 rows")
		}
		delete(f.stories, event.AggregateID)
	case domain.TypeTaskAdded:
		payload, err := event.TaskPayload()
		if err != nil {
			return err
		}
		story, ok := f.stories[event.AggregateID]
		if !ok {
			return errors.New("insert task violates story reference")
		}
		story.Tasks = append(story.Tasks, domain.Task{
			ID:          payload.TaskID,
			StoryID:     event.AggregateID,
			Title:       payload.Title,
			Description: payload.Description,
			CreatedAt:   event.CreatedAt,
		})
	case domain.TypeTaskRevised:
		payload, err := event.TaskPayload()
		if err != nil {
			return err
		}
		story, ok := f.stories[event.AggregateID]
		if !ok {
			return errors.New("update task affected 0 rows")
		}
		task := story.FindTask(payload.TaskID)
		if task == nil {
			return errors.New("update task affected 0 rows")
		}
		task.Revise(payload.Title, payload.Description, event.CreatedAt)
	case domain.TypeTaskRemoved:
		payload, err := event.TaskPayload()
		if err != nil {
			return err
		}
		story, ok := f.stories[event.AggregateID]
		if !ok || !story.RemoveTask(payload.TaskID) {
			return errors.New("delete task affected 0 rows")
		}
	default:
		return errors.New("unknown event type " + event.Type)
	}
	f.events = append(f.events, event)
	return nil
}

// stepClock hands out strictly increasing instants.
type stepClock struct {
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newUseCase(principal domain.Principal, store repository.StoryStore) *UseCase {
	return New(principal, store, newStepClock().Now, nil)
}

func expectCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !domain.IsDomainError(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestCaptureStoryTwiceYieldsDuplicate(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(member, store)

	id, err := uc.CaptureStory(context.Background(), CaptureStoryRequest{
		StoryID: storyID, Title: "title", Description: "description",
	})
	if err != nil {
		t.Fatalf("capture story: %v", err)
	}
	if id != storyID {
		t.Fatalf("capture story returned %q, want %q", id, storyID)
	}

	_, err = uc.CaptureStory(context.Background(), CaptureStoryRequest{
		StoryID: storyID, Title: "other title",
	})
	expectCode(t, err, domain.ErrCodeConflict)
	if len(store.events) != 1 {
		t.Fatalf("duplicate capture left %d events, want 1", len(store.events))
	}
}

func TestAddTaskToMissingStory(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(member, store)

	_, err := uc.AddTask(context.Background(), AddTaskRequest{
		StoryID: storyID, TaskID: taskID, Title: "title",
	})
	expectCode(t, err, domain.ErrCodeNotFound)
	if len(store.events) != 0 {
		t.Fatalf("failed add wrote %d events, want 0", len(store.events))
	}
}

func TestAddTaskDuplicateID(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(member, store)
	ctx := context.Background()

	if _, err := uc.CaptureStory(ctx, CaptureStoryRequest{StoryID: storyID, Title: "s"}); err != nil {
		t.Fatalf("capture story: %v", err)
	}
	if _, err := uc.AddTask(ctx, AddTaskRequest{StoryID: storyID, TaskID: taskID, Title: "t"}); err != nil {
		t.Fatalf("add task: %v", err)
	}

	_, err := uc.AddTask(ctx, AddTaskRequest{StoryID: storyID, TaskID: taskID, Title: "again"})
	expectCode(t, err, domain.ErrCodeConflict)
}

func TestRemoveStoryCascadesTasks(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(member, store)
	ctx := context.Background()

	if _, err := uc.CaptureStory(ctx, CaptureStoryRequest{StoryID: storyID, Title: "s"}); err != nil {
		t.Fatalf("capture story: %v", err)
	}
	for _, id := range []string{taskID, taskID2} {
		if _, err := uc.AddTask(ctx, AddTaskRequest{StoryID: storyID, TaskID: id, Title: "t"}); err != nil {
			t.Fatalf("add task %s: %v", id, err)
		}
	}

	if _, err := uc.RemoveStory(ctx, RemoveStoryRequest{StoryID: storyID}); err != nil {
		t.Fatalf("remove story: %v", err)
	}

	_, err := uc.GetStory(ctx, GetStoryRequest{StoryID: storyID})
	expectCode(t, err, domain.ErrCodeNotFound)

	for _, id := range []string{taskID, taskID2} {
		exists, _ := store.TaskExists(ctx, id)
		if exists {
			t.Fatalf("task %s survived story removal", id)
		}
	}
}

func TestRemoveTaskNotFound(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(member, store)
	ctx := context.Background()

	if _, err := uc.CaptureStory(ctx, CaptureStoryRequest{StoryID: storyID, Title: "s"}); err != nil {
		t.Fatalf("capture story: %v", err)
	}

	_, err := uc.RemoveTask(ctx, RemoveTaskRequest{StoryID: storyID, TaskID: taskID})
	expectCode(t, err, domain.ErrCodeNotFound)
}

func TestMutationsRequireMemberRole(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(stranger, store)
	ctx := context.Background()

	commands := map[string]func() error{
		"capture story": func() error {
			_, err := uc.CaptureStory(ctx, CaptureStoryRequest{StoryID: storyID, Title: "t"})
			return err
		},
		"add task": func() error {
			_, err := uc.AddTask(ctx, AddTaskRequest{StoryID: storyID, TaskID: taskID, Title: "t"})
			return err
		},
		"revise story": func() error {
			_, err := uc.ReviseStory(ctx, ReviseStoryRequest{StoryID: storyID, Title: "t"})
			return err
		},
		"revise task": func() error {
			_, err := uc.ReviseTask(ctx, ReviseTaskRequest{StoryID: storyID, TaskID: taskID, Title: "t"})
			return err
		},
		"remove story": func() error {
			_, err := uc.RemoveStory(ctx, RemoveStoryRequest{StoryID: storyID})
			return err
		},
		"remove task": func() error {
			_, err := uc.RemoveTask(ctx, RemoveTaskRequest{StoryID: storyID, TaskID: taskID})
			return err
		},
	}

	for name, run := range commands {
		err := run()
		expectCode(t, err, domain.ErrCodeForbidden)
		if got := err.Error(); got != "Missing role 'member'" {
			t.Fatalf("%s: error message %q, want %q", name, got, "Missing role 'member'")
		}
	}

	if len(store.events) != 0 || len(store.stories) != 0 {
		t.Fatalf("unauthorized commands caused side effects: %d events, %d stories",
			len(store.events), len(store.stories))
	}
}

func TestListEventsRequiresAdminRole(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(member, store)

	_, err := uc.ListEvents(context.Background(), ListEventsRequest{AggregateID: storyID})
	expectCode(t, err, domain.ErrCodeForbidden)
	if got := err.Error(); got != "Missing role 'admin'" {
		t.Fatalf("error message %q, want %q", got, "Missing role 'admin'")
	}
}

func TestValidationCollectsAllViolations(t *testing.T) {
	uc := newUseCase(member, newFakeStore())

	longDescription := make([]byte, domain.MaxDescriptionLength+1)
	for i := range longDescription {
		longDescription[i] = 'd'
	}

	_, err := uc.CaptureStory(context.Background(), CaptureStoryRequest{
		StoryID:     "not-a-uuid",
		Title:       "",
		Description: string(longDescription),
	})
	expectCode(t, err, domain.ErrCodeInvalid)

	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		t.Fatalf("expected *domain.Error, got %T", err)
	}
	if len(dErr.Fields) != 3 {
		t.Fatalf("got %d field errors, want 3: %+v", len(dErr.Fields), dErr.Fields)
	}
}

func TestListStoriesRejectsBadCursor(t *testing.T) {
	uc := newUseCase(member, newFakeStore())

	_, err := uc.ListStories(context.Background(), ListStoriesRequest{PageSize: 5, PageToken: "???"})
	expectCode(t, err, domain.ErrCodeInvalid)
}

func TestPaginationCoversEveryStoryOnce(t *testing.T) {
	ids := []string{
		"00000000-0000-0000-0000-000000000001",
		"00000000-0000-0000-0000-000000000002",
		"00000000-0000-0000-0000-000000000003",
		"00000000-0000-0000-0000-000000000004",
		"00000000-0000-0000-0000-000000000005",
		"00000000-0000-0000-0000-000000000006",
		"00000000-0000-0000-0000-000000000007",
	}

	for _, limit := range []int{1, 2, 3, 5, 10} {
		store := newFakeStore()
		uc := newUseCase(member, store)
		ctx := context.Background()

		for _, id := range ids {
			if _, err := uc.CaptureStory(ctx, CaptureStoryRequest{StoryID: id, Title: "t"}); err != nil {
				t.Fatalf("limit %d: capture %s: %v", limit, id, err)
			}
		}

		seen := make(map[string]int)
		pages := 0
		token := ""
		for {
			page, err := uc.ListStories(ctx, ListStoriesRequest{PageSize: limit, PageToken: token})
			if err != nil {
				t.Fatalf("limit %d: list page %d: %v", limit, pages, err)
			}
			pages++
			if len(page.Stories) > limit {
				t.Fatalf("limit %d: page %d holds %d stories", limit, pages, len(page.Stories))
			}
			for _, story := range page.Stories {
				seen[story.ID]++
			}
			if page.NextPageToken == "" {
				break
			}
			token = page.NextPageToken
		}

		wantPages := (len(ids) + limit - 1) / limit
		if pages != wantPages {
			t.Fatalf("limit %d: walked %d pages, want %d", limit, pages, wantPages)
		}
		for _, id := range ids {
			if seen[id] != 1 {
				t.Fatalf("limit %d: story %s seen %d times", limit, id, seen[id])
			}
		}
	}
}

func TestEventOrderingFollowsSubmission(t *testing.T) {
	store := newFakeStore()
	memberUC := newUseCase(member, store)
	ctx := context.Background()

	if _, err := memberUC.CaptureStory(ctx, CaptureStoryRequest{StoryID: storyID, Title: "t"}); err != nil {
		t.Fatalf("capture story: %v", err)
	}
	if _, err := memberUC.ReviseStory(ctx, ReviseStoryRequest{StoryID: storyID, Title: "t2"}); err != nil {
		t.Fatalf("revise story: %v", err)
	}

	adminUC := newUseCase(admin, store)
	events, err := adminUC.ListEvents(ctx, ListEventsRequest{AggregateID: storyID})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != domain.TypeStoryCaptured || events[1].Type != domain.TypeStoryRevised {
		t.Fatalf("event order %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].CreatedAt.Before(events[0].CreatedAt) {
		t.Fatalf("event timestamps regressed: %v then %v", events[0].CreatedAt, events[1].CreatedAt)
	}
}

func TestCaptureAddFetchReviseScenario(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(member, store)
	ctx := context.Background()

	if _, err := uc.CaptureStory(ctx, CaptureStoryRequest{
		StoryID: storyID, Title: "title", Description: "description",
	}); err != nil {
		t.Fatalf("capture story: %v", err)
	}
	if _, err := uc.AddTask(ctx, AddTaskRequest{
		StoryID: storyID, TaskID: taskID, Title: "title",
	}); err != nil {
		t.Fatalf("add task: %v", err)
	}

	story, err := uc.GetStory(ctx, GetStoryRequest{StoryID: storyID})
	if err != nil {
		t.Fatalf("get story: %v", err)
	}
	if len(story.Tasks) != 1 || story.Tasks[0].ID != taskID {
		t.Fatalf("story tasks = %+v, want single task %s", story.Tasks, taskID)
	}
	if story.UpdatedAt != nil {
		t.Fatalf("story UpdatedAt = %v before revision, want nil", story.UpdatedAt)
	}
	if story.Tasks[0].UpdatedAt != nil {
		t.Fatalf("task UpdatedAt = %v before revision, want nil", story.Tasks[0].UpdatedAt)
	}

	if _, err := uc.ReviseStory(ctx, ReviseStoryRequest{
		StoryID: storyID, Title: "new title", Description: "new description",
	}); err != nil {
		t.Fatalf("revise story: %v", err)
	}

	revised, err := uc.GetStory(ctx, GetStoryRequest{StoryID: storyID})
	if err != nil {
		t.Fatalf("get revised story: %v", err)
	}
	if revised.UpdatedAt == nil {
		t.Fatal("story UpdatedAt still nil after revision")
	}
	if revised.Title != "new title" {
		t.Fatalf("revised title %q", revised.Title)
	}
}

func TestReviseRequiresExistenceOnly(t *testing.T) {
	store := newFakeStore()
	uc := newUseCase(member, store)
	ctx := context.Background()

	_, err := uc.ReviseStory(ctx, ReviseStoryRequest{StoryID: storyID, Title: "t"})
	expectCode(t, err, domain.ErrCodeNotFound)

	if _, err := uc.CaptureStory(ctx, CaptureStoryRequest{StoryID: storyID, Title: "a"}); err != nil {
		t.Fatalf("capture story: %v", err)
	}
	if _, err := uc.CaptureStory(ctx, CaptureStoryRequest{StoryID: storyID2, Title: "a"}); err != nil {
		t.Fatalf("capture second story: %v", err)
	}
	// Same title on another story is fine; revision never re-checks uniqueness.
	if _, err := uc.ReviseStory(ctx, ReviseStoryRequest{StoryID: storyID2, Title: "a"}); err != nil {
		t.Fatalf("revise story: %v", err)
	}
}
