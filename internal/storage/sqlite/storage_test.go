// ABOUTME: Tests for run persistence and topic queries
// ABOUTME: Round-trips a two layer run through an in-memory database
package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/harper/topicnaming/internal/models"
)

func testRun() *models.Run {
	h := &models.Hierarchy{Layers: []models.Layer{
		{Index: 0, Clusters: []models.Cluster{
			{Index: 0, Vector: []float64{1, 0}, Location: []float64{0, 0.5}, Pointset: []int{0, 1}, Metaclusters: []int{0}},
			{Index: 1, Vector: []float64{0, 1}, Location: []float64{5, 5}, Pointset: []int{2, 3}, Metaclusters: []int{1}},
		}, Neighbors: [][]int{{1}, {0}}},
		{Index: 1, Clusters: []models.Cluster{
			{Index: 0, Vector: []float64{0.7, 0.7}, Location: []float64{2, 3}, Pointset: []int{0, 1, 2, 3}, Metaclusters: []int{0, 1}},
		}, Neighbors: [][]int{{}}},
	}}
	return &models.Run{
		DocumentType:      "titles",
		CorpusDescription: "academic articles",
		ChatModel:         "gpt-4o-mini",
		Techniques:        []models.Technique{models.Topical, models.Contrastive},
		Documents:         []string{"paper on cells", "paper on genes", "paper on stars", "paper on planets", "noise"},
		Hierarchy:         h,
		Representation: models.Representation{
			models.Topical:     models.EvidenceLayers{{{"paper on cells"}, {"paper on stars"}}, {{"paper on cells", "paper on stars"}}},
			models.Contrastive: models.EvidenceLayers{{{"cells", "genes"}, {"stars"}}, {{models.NoKeywordsSentinel}}},
		},
		Subtopics: [][][]string{nil, {{"Biology", "Astronomy"}}},
		RawNames:  models.NameLayers{{"Science", "Astronomy"}, {"Science"}},
		Names:     models.NameLayers{{"Cell Biology", "Astronomy"}, {"Science"}},
		Attempts:  [][]int{{1, 0}, {0}},
	}
}

func newTestStore(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveRun_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	run := testRun()

	id, err := store.SaveRun(run)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if id == "" || run.ID != id {
		t.Fatalf("SaveRun() id = %q, run.ID = %q", id, run.ID)
	}

	got, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetRun() returned nil")
	}
	if !reflect.DeepEqual(got.Documents, run.Documents) {
		t.Errorf("Documents = %v", got.Documents)
	}
	if !reflect.DeepEqual(got.Techniques, run.Techniques) {
		t.Errorf("Techniques = %v", got.Techniques)
	}
	if got.Hierarchy.Len() != 2 {
		t.Fatalf("layers = %d, want 2", got.Hierarchy.Len())
	}
	top := got.Hierarchy.Layers[1].Clusters[0]
	if !reflect.DeepEqual(top.Pointset, []int{0, 1, 2, 3}) || !reflect.DeepEqual(top.Metaclusters, []int{0, 1}) {
		t.Errorf("top cluster = %+v", top)
	}
	if !reflect.DeepEqual(top.Vector, []float64{0.7, 0.7}) {
		t.Errorf("top vector = %v", top.Vector)
	}
	if !reflect.DeepEqual(got.Hierarchy.Layers[0].Neighbors, [][]int{{1}, {0}}) {
		t.Errorf("neighbors = %v", got.Hierarchy.Layers[0].Neighbors)
	}
	if !reflect.DeepEqual(got.Names, run.Names) || !reflect.DeepEqual(got.RawNames, run.RawNames) {
		t.Errorf("names = %v / %v", got.Names, got.RawNames)
	}
	if got.Attempts[0][0] != 1 {
		t.Errorf("attempts = %v", got.Attempts)
	}
	if kw := got.Representation[models.Contrastive].At(0, 0); !reflect.DeepEqual(kw, []string{"cells", "genes"}) {
		t.Errorf("keywords = %v", kw)
	}
	if !reflect.DeepEqual(got.Subtopics[1][0], []string{"Biology", "Astronomy"}) {
		t.Errorf("subtopics = %v", got.Subtopics)
	}
}

func TestSaveRun_RequiresLayers(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.SaveRun(&models.Run{}); err == nil {
		t.Error("SaveRun() should fail without cluster layers")
	}
}

func TestGetRun_Missing(t *testing.T) {
	store := newTestStore(t)
	run, err := store.GetRun("nope")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run != nil {
		t.Error("GetRun() should return nil for a missing run")
	}
}

func TestListRunsAndResolve(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.ResolveRunID("latest"); err == nil {
		t.Error("ResolveRunID() should fail with no runs")
	}

	older := testRun()
	older.CreatedAt = time.Now().Add(-time.Hour)
	if _, err := store.SaveRun(older); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	newer := testRun()
	if _, err := store.SaveRun(newer); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() = %d runs, want 2", len(runs))
	}
	if runs[0].ID != newer.ID {
		t.Errorf("first run = %s, want newest %s", runs[0].ID, newer.ID)
	}
	if runs[0].Topics != 3 || runs[0].Layers != 2 || runs[0].Documents != 5 {
		t.Errorf("summary = %+v", runs[0])
	}

	latest, err := store.ResolveRunID("")
	if err != nil || latest != newer.ID {
		t.Errorf("ResolveRunID() = %q, %v", latest, err)
	}
	if id, _ := store.ResolveRunID(older.ID); id != older.ID {
		t.Errorf("ResolveRunID(id) = %q", id)
	}
}

func TestLayerTopicsAndGetTopic(t *testing.T) {
	store := newTestStore(t)
	id, err := store.SaveRun(testRun())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	base, err := store.LayerTopics(id, 0)
	if err != nil {
		t.Fatalf("LayerTopics() error = %v", err)
	}
	if len(base) != 2 || base[0].Name != "Cell Biology" || base[0].Size != 2 {
		t.Errorf("LayerTopics(0) = %+v", base)
	}
	all, _ := store.LayerTopics(id, -1)
	if len(all) != 3 || all[0].Layer != 1 {
		t.Errorf("LayerTopics(-1) should list coarse layers first: %+v", all)
	}
	if len(all) == 3 && !reflect.DeepEqual(all[0].Metaclusters, []int{0, 1}) {
		t.Errorf("LayerTopics(-1) metaclusters = %v", all[0].Metaclusters)
	}

	topic, err := store.GetTopic(id, 1, 0)
	if err != nil {
		t.Fatalf("GetTopic() error = %v", err)
	}
	if topic == nil {
		t.Fatal("GetTopic() returned nil")
	}
	if topic.Name != "Science" || !reflect.DeepEqual(topic.Metaclusters, []int{0, 1}) {
		t.Errorf("GetTopic() = %+v", topic)
	}
	if !reflect.DeepEqual(topic.Evidence[models.SubtopicsKey], []string{"Biology", "Astronomy"}) {
		t.Errorf("evidence = %v", topic.Evidence)
	}

	missing, err := store.GetTopic(id, 3, 0)
	if err != nil || missing != nil {
		t.Errorf("GetTopic(missing) = %v, %v", missing, err)
	}
}

func TestDocumentTopics(t *testing.T) {
	store := newTestStore(t)
	id, err := store.SaveRun(testRun())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	topics, err := store.DocumentTopics(id, 2)
	if err != nil {
		t.Fatalf("DocumentTopics() error = %v", err)
	}
	want := []models.DocumentTopic{{Layer: 0, Cluster: 1, Name: "Astronomy"}, {Layer: 1, Cluster: 0, Name: "Science"}}
	if !reflect.DeepEqual(topics, want) {
		t.Errorf("DocumentTopics(2) = %+v, want %+v", topics, want)
	}

	noise, err := store.DocumentTopics(id, 4)
	if err != nil {
		t.Fatalf("DocumentTopics() error = %v", err)
	}
	for _, dt := range noise {
		if dt.Name != models.UnlabelledPlaceholder || dt.Cluster != models.Unassigned {
			t.Errorf("noise document topic = %+v", dt)
		}
	}

	if _, err := store.DocumentTopics(id, 9); err == nil {
		t.Error("DocumentTopics() should reject an out of range document")
	}
}

// vectorEmbedder embeds every query to the same vector.
type vectorEmbedder struct {
	vector []float64
	err    error
}

func (e vectorEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = e.vector
	}
	return out, nil
}

func TestSearchTopics(t *testing.T) {
	store := newTestStore(t)
	id, err := store.SaveRun(testRun())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	ctx := context.Background()

	found, err := store.SearchTopics(ctx, "bio", "", 10)
	if err != nil {
		t.Fatalf("SearchTopics() error = %v", err)
	}
	if len(found) != 1 || found[0].Name != "Cell Biology" {
		t.Errorf("SearchTopics(bio) = %+v", found)
	}

	// Raw names are searched too
	raw, _ := store.SearchTopics(ctx, "science", id, 10)
	if len(raw) != 2 {
		t.Errorf("SearchTopics(science) = %+v, want 2 matches", raw)
	}

	store.SetEmbedder(vectorEmbedder{vector: []float64{0, 1}})
	semantic, err := store.SearchTopics(ctx, "space", id, 2)
	if err != nil {
		t.Fatalf("SearchTopics() error = %v", err)
	}
	if len(semantic) != 2 || semantic[0].Name != "Astronomy" {
		t.Errorf("semantic SearchTopics() = %+v", semantic)
	}

	store.SetEmbedder(vectorEmbedder{err: errors.New("offline")})
	if _, err := store.SearchTopics(ctx, "space", id, 2); err != nil {
		t.Errorf("embedding failures should fall back to keyword search, got %v", err)
	}
}

func TestDeleteRun(t *testing.T) {
	store := newTestStore(t)
	id, err := store.SaveRun(testRun())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := store.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	if run, _ := store.GetRun(id); run != nil {
		t.Error("run still present after delete")
	}
	var n int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM cluster_points WHERE run_id = ?`, id).Scan(&n); err != nil || n != 0 {
		t.Errorf("cluster points left behind: %d, %v", n, err)
	}
	if err := store.DeleteRun(id); err == nil {
		t.Error("DeleteRun() should fail for a missing run")
	}
}

func TestStorageWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewStorageWithPath(path)
	if err != nil {
		t.Fatalf("NewStorageWithPath() error = %v", err)
	}
	id, err := store.SaveRun(testRun())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	_ = store.Close()

	reopened, err := NewStorageWithPath(path)
	if err != nil {
		t.Fatalf("NewStorageWithPath() error = %v", err)
	}
	defer func() { _ = reopened.Close() }()
	run, err := reopened.GetRun(id)
	if err != nil || run == nil {
		t.Fatalf("GetRun() after reopen = %v, %v", run, err)
	}
}

func TestVectorBlobRoundTrip(t *testing.T) {
	v := []float64{1.5, -2, 0, 3.25}
	if got := blobToVector(vectorToBlob(v)); !reflect.DeepEqual(got, v) {
		t.Errorf("round trip = %v, want %v", got, v)
	}
	if blobToVector(vectorToBlob(nil)) != nil {
		t.Error("nil vector should round trip to nil")
	}
}

func TestStorage_Info(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.SaveRun(testRun()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if _, err := store.SaveRun(testRun()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	info, err := store.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Runs != 2 || info.Documents != 10 || info.SchemaVersion != SchemaVersion {
		t.Errorf("Info() = %+v, want 2 runs of 10 documents", info)
	}
}
