package services

import (
	"context"
	"errors"
	"testing"

	"planai/internal/apperr"
	"planai/internal/models"
	"planai/internal/store"
)

func TestProjectServiceRoundTrip(t *testing.T) {
	svc := NewProjectService(store.NewMemoryStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, &models.CreateProjectRequest{Name: "Shop", Description: "An online shop"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.EpicsCount != 0 || created.TasksCount != 0 {
		t.Errorf("a fresh project should have zero counts, got %+v", created)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("expected the created project in the list, got %+v", list)
	}

	newDesc := "Still an online shop"
	updated, err := svc.Update(ctx, created.ID, &models.UpdateProjectRequest{Description: &newDesc})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Shop" {
		t.Errorf("absent name should be unchanged, got %q", updated.Name)
	}
	if updated.Description != newDesc {
		t.Errorf("expected updated description, got %q", updated.Description)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not-found after delete, got %v", err)
	}
}

func TestProjectServiceDuplicateName(t *testing.T) {
	svc := NewProjectService(store.NewMemoryStore())
	ctx := context.Background()

	if _, err := svc.Create(ctx, &models.CreateProjectRequest{Name: "Shop"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := svc.Create(ctx, &models.CreateProjectRequest{Name: "Shop"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestEpicServiceParentCheck(t *testing.T) {
	m := store.NewMemoryStore()
	svc := NewEpicService(m)
	ctx := context.Background()

	_, err := svc.Create(ctx, "missing", &models.CreateEpicRequest{Title: "Catalog"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found for unknown project, got %v", err)
	}
	if _, err := svc.ListByProject(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found listing under unknown project, got %v", err)
	}
}

func TestHierarchyServicesRoundTrip(t *testing.T) {
	m := store.NewMemoryStore()
	ctx := context.Background()

	project, err := NewProjectService(m).Create(ctx, &models.CreateProjectRequest{Name: "Shop"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	epicSvc := NewEpicService(m)
	epic, err := epicSvc.Create(ctx, project.ID, &models.CreateEpicRequest{Title: "Catalog", Priority: models.PriorityHigh})
	if err != nil {
		t.Fatalf("create epic: %v", err)
	}

	storySvc := NewStoryService(m)
	story, err := storySvc.Create(ctx, epic.ID, &models.CreateStoryRequest{
		Title: "Browse products",
		AsA:   "shopper",
		IWant: "to browse the catalog",
	})
	if err != nil {
		t.Fatalf("create story: %v", err)
	}

	taskSvc := NewTaskService(m)
	hours := 8
	task, err := taskSvc.Create(ctx, story.ID, &models.CreateTaskRequest{Title: "Build product grid", EstimatedHours: &hours})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != models.StatusTodo {
		t.Errorf("expected default status TODO, got %q", task.Status)
	}

	// Epic detail carries the whole subtree.
	detail, err := epicSvc.Get(ctx, epic.ID)
	if err != nil {
		t.Fatalf("get epic detail: %v", err)
	}
	if len(detail.Stories) != 1 || len(detail.Stories[0].Tasks) != 1 {
		t.Fatalf("expected nested story and task, got %+v", detail.Stories)
	}

	// Status moves through the workflow.
	done := models.StatusDone
	updatedTask, err := taskSvc.Update(ctx, task.ID, &models.UpdateTaskRequest{Status: &done})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updatedTask.Status != models.StatusDone {
		t.Errorf("expected DONE, got %q", updatedTask.Status)
	}

	// Deleting the epic takes the subtree with it.
	if err := epicSvc.Delete(ctx, epic.ID); err != nil {
		t.Fatalf("delete epic: %v", err)
	}
	if _, err := taskSvc.Get(ctx, task.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected task gone after epic delete, got %v", err)
	}
}
