// ABOUTME: Run storage operations for SQLite
// ABOUTME: Persists cluster layers, evidence and topic names of a pipeline run in one transaction
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/vecmath"
)

// RunStore handles run persistence
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Save inserts a complete run. The run must have an ID.
func (s *RunStore) Save(run *models.Run) (err error) {
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}
	if run.Hierarchy == nil {
		return fmt.Errorf("run %s has no cluster layers", run.ID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	techniques := make([]string, len(run.Techniques))
	for i, t := range run.Techniques {
		techniques[i] = t.String()
	}
	techniquesJSON, err := json.Marshal(techniques)
	if err != nil {
		return err
	}
	if _, err = tx.Exec(`
		INSERT INTO runs (id, document_type, corpus_description, chat_model, techniques, document_count, layer_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.DocumentType, run.CorpusDescription, run.ChatModel, string(techniquesJSON),
		len(run.Documents), run.Hierarchy.Len(), run.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err = saveDocuments(tx, run); err != nil {
		return err
	}
	if err = saveClusters(tx, run); err != nil {
		return err
	}
	if err = saveEvidence(tx, run); err != nil {
		return err
	}
	if err = saveNames(tx, run); err != nil {
		return err
	}
	return tx.Commit()
}

func saveDocuments(tx *sql.Tx, run *models.Run) error {
	stmt, err := tx.Prepare(`INSERT INTO documents (run_id, idx, text) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for i, text := range run.Documents {
		if _, err := stmt.Exec(run.ID, i, text); err != nil {
			return fmt.Errorf("failed to insert document %d: %w", i, err)
		}
	}
	return nil
}

func saveClusters(tx *sql.Tx, run *models.Run) error {
	clusterStmt, err := tx.Prepare(`INSERT INTO clusters (run_id, layer, idx, size, vector, location) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = clusterStmt.Close() }()
	pointStmt, err := tx.Prepare(`INSERT INTO cluster_points (run_id, layer, cluster, doc) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = pointStmt.Close() }()
	metaStmt, err := tx.Prepare(`INSERT INTO cluster_metaclusters (run_id, layer, cluster, finer) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = metaStmt.Close() }()
	neighborStmt, err := tx.Prepare(`INSERT INTO cluster_neighbors (run_id, layer, cluster, rank, neighbor) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = neighborStmt.Close() }()

	for li, layer := range run.Hierarchy.Layers {
		for ci, c := range layer.Clusters {
			if _, err := clusterStmt.Exec(run.ID, li, ci, len(c.Pointset), vectorToBlob(c.Vector), vectorToBlob(c.Location)); err != nil {
				return fmt.Errorf("failed to insert cluster %d/%d: %w", li, ci, err)
			}
			for _, doc := range c.Pointset {
				if _, err := pointStmt.Exec(run.ID, li, ci, doc); err != nil {
					return fmt.Errorf("failed to insert cluster point: %w", err)
				}
			}
			for _, finer := range c.Metaclusters {
				if _, err := metaStmt.Exec(run.ID, li, ci, finer); err != nil {
					return fmt.Errorf("failed to insert metacluster: %w", err)
				}
			}
			if ci < len(layer.Neighbors) {
				for rank, n := range layer.Neighbors[ci] {
					if _, err := neighborStmt.Exec(run.ID, li, ci, rank, n); err != nil {
						return fmt.Errorf("failed to insert neighbor: %w", err)
					}
				}
			}
		}
	}
	return nil
}

func saveEvidence(tx *sql.Tx, run *models.Run) error {
	stmt, err := tx.Prepare(`INSERT INTO evidence (run_id, layer, cluster, kind, items) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	insert := func(kind string, layers [][][]string) error {
		for li, clusters := range layers {
			for ci, items := range clusters {
				if items == nil {
					continue
				}
				itemsJSON, err := json.Marshal(items)
				if err != nil {
					return err
				}
				if _, err := stmt.Exec(run.ID, li, ci, kind, string(itemsJSON)); err != nil {
					return fmt.Errorf("failed to insert %s evidence: %w", kind, err)
				}
			}
		}
		return nil
	}
	for t, layers := range run.Representation {
		if err := insert(t.String(), layers); err != nil {
			return err
		}
	}
	return insert(models.SubtopicsKey, run.Subtopics)
}

func saveNames(tx *sql.Tx, run *models.Run) error {
	stmt, err := tx.Prepare(`INSERT INTO topic_names (run_id, layer, cluster, name, raw_name, attempts) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for li, names := range run.Names {
		for ci, name := range names {
			raw, attempts := "", 0
			if li < len(run.RawNames) && ci < len(run.RawNames[li]) {
				raw = run.RawNames[li][ci]
			}
			if li < len(run.Attempts) && ci < len(run.Attempts[li]) {
				attempts = run.Attempts[li][ci]
			}
			if _, err := stmt.Exec(run.ID, li, ci, name, nullString(raw), attempts); err != nil {
				return fmt.Errorf("failed to insert topic name: %w", err)
			}
		}
	}
	return nil
}

// List returns a summary of every run, newest first
func (s *RunStore) List() ([]models.RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.document_type, r.corpus_description, r.document_count, r.layer_count, r.created_at,
			(SELECT COUNT(*) FROM clusters c WHERE c.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []models.RunSummary
	for rows.Next() {
		var (
			r            models.RunSummary
			documentType sql.NullString
			description  sql.NullString
		)
		if err := rows.Scan(&r.ID, &documentType, &description, &r.Documents, &r.Layers, &r.CreatedAt, &r.Topics); err != nil {
			return nil, err
		}
		r.DocumentType = documentType.String
		r.CorpusDescription = description.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Latest returns the id of the newest run, or "" when there is none
func (s *RunStore) Latest() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM runs ORDER BY created_at DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

// Get loads a complete run, or nil when it does not exist
func (s *RunStore) Get(id string) (*models.Run, error) {
	var (
		run            models.Run
		documentType   sql.NullString
		description    sql.NullString
		chatModel      sql.NullString
		techniquesJSON sql.NullString
		documentCount  int
		layerCount     int
	)
	err := s.db.QueryRow(`
		SELECT id, document_type, corpus_description, chat_model, techniques, document_count, layer_count, created_at
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &documentType, &description, &chatModel, &techniquesJSON, &documentCount, &layerCount, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.DocumentType = documentType.String
	run.CorpusDescription = description.String
	run.ChatModel = chatModel.String
	if techniquesJSON.Valid && techniquesJSON.String != "" {
		var names []string
		if err := json.Unmarshal([]byte(techniquesJSON.String), &names); err != nil {
			return nil, fmt.Errorf("failed to decode techniques: %w", err)
		}
		run.Techniques, err = models.ParseTechniques(strings.Join(names, ","))
		if err != nil {
			return nil, err
		}
	}

	if run.Documents, err = s.documents(id, documentCount); err != nil {
		return nil, err
	}
	if run.Hierarchy, err = s.hierarchy(id, layerCount); err != nil {
		return nil, err
	}
	if err := s.loadEvidence(&run, layerCount); err != nil {
		return nil, err
	}
	if err := s.loadNames(&run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *RunStore) documents(runID string, count int) ([]string, error) {
	rows, err := s.db.Query(`SELECT idx, text FROM documents WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]string, count)
	for rows.Next() {
		var (
			idx  int
			text string
		)
		if err := rows.Scan(&idx, &text); err != nil {
			return nil, err
		}
		if idx >= 0 && idx < count {
			docs[idx] = text
		}
	}
	return docs, rows.Err()
}

func (s *RunStore) hierarchy(runID string, layerCount int) (*models.Hierarchy, error) {
	h := &models.Hierarchy{Layers: make([]models.Layer, layerCount)}
	for i := range h.Layers {
		h.Layers[i].Index = i
	}

	rows, err := s.db.Query(`SELECT layer, idx, vector, location FROM clusters WHERE run_id = ? ORDER BY layer, idx`, runID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			layer, idx       int
			vector, location []byte
		)
		if err := rows.Scan(&layer, &idx, &vector, &location); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if layer < 0 || layer >= layerCount {
			continue
		}
		h.Layers[layer].Clusters = append(h.Layers[layer].Clusters, models.Cluster{
			Index:    idx,
			Vector:   blobToVector(vector),
			Location: blobToVector(location),
		})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	for i := range h.Layers {
		h.Layers[i].Neighbors = make([][]int, h.Layers[i].Len())
	}

	cluster := func(layer, idx int) *models.Cluster {
		if layer < 0 || layer >= layerCount || idx < 0 || idx >= h.Layers[layer].Len() {
			return nil
		}
		return &h.Layers[layer].Clusters[idx]
	}

	if err := s.eachEdge(`SELECT layer, cluster, doc FROM cluster_points WHERE run_id = ? ORDER BY layer, cluster, doc`, runID, func(layer, idx, v int) {
		if c := cluster(layer, idx); c != nil {
			c.Pointset = append(c.Pointset, v)
		}
	}); err != nil {
		return nil, err
	}
	if err := s.eachEdge(`SELECT layer, cluster, finer FROM cluster_metaclusters WHERE run_id = ? ORDER BY layer, cluster, finer`, runID, func(layer, idx, v int) {
		if c := cluster(layer, idx); c != nil {
			c.Metaclusters = append(c.Metaclusters, v)
		}
	}); err != nil {
		return nil, err
	}
	if err := s.eachEdge(`SELECT layer, cluster, neighbor FROM cluster_neighbors WHERE run_id = ? ORDER BY layer, cluster, rank`, runID, func(layer, idx, v int) {
		if cluster(layer, idx) != nil {
			h.Layers[layer].Neighbors[idx] = append(h.Layers[layer].Neighbors[idx], v)
		}
	}); err != nil {
		return nil, err
	}
	return h, nil
}

// eachEdge scans (layer, cluster, value) rows.
func (s *RunStore) eachEdge(query, runID string, fn func(layer, cluster, value int)) error {
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var layer, cluster, value int
		if err := rows.Scan(&layer, &cluster, &value); err != nil {
			_ = rows.Close()
			return err
		}
		fn(layer, cluster, value)
	}
	return closeRows(rows)
}

func (s *RunStore) loadEvidence(run *models.Run, layerCount int) error {
	run.Representation = make(models.Representation)
	run.Subtopics = make([][][]string, layerCount)
	for li := range run.Subtopics {
		run.Subtopics[li] = make([][]string, run.Hierarchy.Layers[li].Len())
	}
	for _, t := range run.Techniques {
		layers := make(models.EvidenceLayers, layerCount)
		for li := range layers {
			layers[li] = make([][]string, run.Hierarchy.Layers[li].Len())
		}
		run.Representation[t] = layers
	}

	rows, err := s.db.Query(`SELECT layer, cluster, kind, items FROM evidence WHERE run_id = ?`, run.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			layer, cluster int
			kind, items    string
		)
		if err := rows.Scan(&layer, &cluster, &kind, &items); err != nil {
			_ = rows.Close()
			return err
		}
		if layer < 0 || layer >= layerCount || cluster < 0 || cluster >= run.Hierarchy.Layers[layer].Len() {
			continue
		}
		var list []string
		if err := json.Unmarshal([]byte(items), &list); err != nil {
			continue
		}
		if kind == models.SubtopicsKey {
			run.Subtopics[layer][cluster] = list
			continue
		}
		t, err := models.ParseTechnique(kind)
		if err != nil {
			continue
		}
		if layers, ok := run.Representation[t]; ok {
			layers[layer][cluster] = list
		}
	}
	return closeRows(rows)
}

func (s *RunStore) loadNames(run *models.Run) error {
	n := run.Hierarchy.Len()
	run.Names = make(models.NameLayers, n)
	run.RawNames = make(models.NameLayers, n)
	run.Attempts = make([][]int, n)
	for li := range run.Names {
		size := run.Hierarchy.Layers[li].Len()
		run.Names[li] = make([]string, size)
		run.RawNames[li] = make([]string, size)
		run.Attempts[li] = make([]int, size)
	}

	rows, err := s.db.Query(`SELECT layer, cluster, name, raw_name, attempts FROM topic_names WHERE run_id = ?`, run.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			layer, cluster, attempts int
			name                     string
			raw                      sql.NullString
		)
		if err := rows.Scan(&layer, &cluster, &name, &raw, &attempts); err != nil {
			_ = rows.Close()
			return err
		}
		if layer < 0 || layer >= n || cluster < 0 || cluster >= len(run.Names[layer]) {
			continue
		}
		run.Names[layer][cluster] = name
		run.RawNames[layer][cluster] = raw.String
		run.Attempts[layer][cluster] = attempts
	}
	return closeRows(rows)
}

// Topics returns the named clusters of one layer, or of every layer when
// layer is negative.
func (s *RunStore) Topics(runID string, layer int) ([]models.Topic, error) {
	query := `
		SELECT c.layer, c.idx, c.size, COALESCE(n.name, ''), COALESCE(n.raw_name, ''), COALESCE(n.attempts, 0)
		FROM clusters c
		LEFT JOIN topic_names n ON n.run_id = c.run_id AND n.layer = c.layer AND n.cluster = c.idx
		WHERE c.run_id = ?`
	args := []interface{}{runID}
	if layer >= 0 {
		query += ` AND c.layer = ?`
		args = append(args, layer)
	}
	query += ` ORDER BY c.layer DESC, c.idx`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	var topics []models.Topic
	for rows.Next() {
		t := models.Topic{RunID: runID}
		if err := rows.Scan(&t.Layer, &t.Cluster, &t.Size, &t.Name, &t.RawName, &t.Attempts); err != nil {
			_ = rows.Close()
			return nil, err
		}
		topics = append(topics, t)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	if err := s.attachMetaclusters(runID, layer, topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// attachMetaclusters fills in the finer clusters merged into each topic.
// It runs after the topic rows are closed since the in-memory database has
// a single connection.
func (s *RunStore) attachMetaclusters(runID string, layer int, topics []models.Topic) error {
	if len(topics) == 0 {
		return nil
	}
	index := make(map[[2]int]int, len(topics))
	for i, t := range topics {
		index[[2]int{t.Layer, t.Cluster}] = i
	}

	query := `SELECT layer, cluster, finer FROM cluster_metaclusters WHERE run_id = ?`
	args := []interface{}{runID}
	if layer >= 0 {
		query += ` AND layer = ?`
		args = append(args, layer)
	}
	query += ` ORDER BY layer, cluster, finer`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var l, c, finer int
		if err := rows.Scan(&l, &c, &finer); err != nil {
			_ = rows.Close()
			return err
		}
		if i, ok := index[[2]int{l, c}]; ok {
			topics[i].Metaclusters = append(topics[i].Metaclusters, finer)
		}
	}
	return closeRows(rows)
}

// Topic returns one cluster with its evidence, metaclusters and neighbors,
// or nil when it does not exist.
func (s *RunStore) Topic(runID string, layer, cluster int) (*models.Topic, error) {
	t := models.Topic{RunID: runID, Layer: layer, Cluster: cluster}
	err := s.db.QueryRow(`
		SELECT c.size, COALESCE(n.name, ''), COALESCE(n.raw_name, ''), COALESCE(n.attempts, 0)
		FROM clusters c
		LEFT JOIN topic_names n ON n.run_id = c.run_id AND n.layer = c.layer AND n.cluster = c.idx
		WHERE c.run_id = ? AND c.layer = ? AND c.idx = ?
	`, runID, layer, cluster).Scan(&t.Size, &t.Name, &t.RawName, &t.Attempts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if t.Metaclusters, err = s.ints(`SELECT finer FROM cluster_metaclusters WHERE run_id = ? AND layer = ? AND cluster = ? ORDER BY finer`, runID, layer, cluster); err != nil {
		return nil, err
	}
	if t.Neighbors, err = s.ints(`SELECT neighbor FROM cluster_neighbors WHERE run_id = ? AND layer = ? AND cluster = ? ORDER BY rank`, runID, layer, cluster); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT kind, items FROM evidence WHERE run_id = ? AND layer = ? AND cluster = ?`, runID, layer, cluster)
	if err != nil {
		return nil, err
	}
	t.Evidence = make(map[string][]string)
	for rows.Next() {
		var kind, items string
		if err := rows.Scan(&kind, &items); err != nil {
			_ = rows.Close()
			return nil, err
		}
		var list []string
		if err := json.Unmarshal([]byte(items), &list); err == nil {
			t.Evidence[kind] = list
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *RunStore) ints(query string, args ...interface{}) ([]int, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, v)
	}
	return out, closeRows(rows)
}

// DocumentTopics returns the topic of document doc on every layer, coarsest
// last. Layers where the document is unclustered get the placeholder name.
func (s *RunStore) DocumentTopics(runID string, doc int) ([]models.DocumentTopic, error) {
	var layerCount, documentCount int
	err := s.db.QueryRow(`SELECT layer_count, document_count FROM runs WHERE id = ?`, runID).Scan(&layerCount, &documentCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, err
	}
	if doc < 0 || doc >= documentCount {
		return nil, fmt.Errorf("document %d out of range [0, %d)", doc, documentCount)
	}

	out := make([]models.DocumentTopic, layerCount)
	for i := range out {
		out[i] = models.DocumentTopic{Layer: i, Cluster: models.Unassigned, Name: models.UnlabelledPlaceholder}
	}
	rows, err := s.db.Query(`
		SELECT p.layer, p.cluster, COALESCE(n.name, '')
		FROM cluster_points p
		LEFT JOIN topic_names n ON n.run_id = p.run_id AND n.layer = p.layer AND n.cluster = p.cluster
		WHERE p.run_id = ? AND p.doc = ?
	`, runID, doc)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var dt models.DocumentTopic
		if err := rows.Scan(&dt.Layer, &dt.Cluster, &dt.Name); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if dt.Layer >= 0 && dt.Layer < layerCount {
			out[dt.Layer] = dt
		}
	}
	return out, closeRows(rows)
}

// Search finds topics whose committed or generated name contains query,
// case-insensitively. An empty runID searches every run.
func (s *RunStore) Search(query, runID string, limit int) ([]models.Topic, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	sqlQuery := `
		SELECT n.run_id, n.layer, n.cluster, n.name, COALESCE(n.raw_name, ''), n.attempts, COALESCE(c.size, 0)
		FROM topic_names n
		LEFT JOIN clusters c ON c.run_id = n.run_id AND c.layer = n.layer AND c.idx = n.cluster
		WHERE (LOWER(n.name) LIKE ? OR LOWER(COALESCE(n.raw_name, '')) LIKE ?)`
	args := []interface{}{pattern, pattern}
	if runID != "" {
		sqlQuery += ` AND n.run_id = ?`
		args = append(args, runID)
	}
	sqlQuery += ` ORDER BY n.layer DESC, c.size DESC`
	if limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	var topics []models.Topic
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.RunID, &t.Layer, &t.Cluster, &t.Name, &t.RawName, &t.Attempts, &t.Size); err != nil {
			_ = rows.Close()
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, closeRows(rows)
}

// SimilarTopics ranks the clusters of a run by cosine distance between their
// centroid and vector and returns the closest maxResults.
func (s *RunStore) SimilarTopics(runID string, vector []float64, maxResults int) ([]models.Topic, error) {
	topics, err := s.Topics(runID, -1)
	if err != nil {
		return nil, err
	}
	type scored struct {
		topic    models.Topic
		distance float64
	}
	var results []scored
	rows, err := s.db.Query(`SELECT layer, idx, vector FROM clusters WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[[2]int]models.Topic, len(topics))
	for _, t := range topics {
		byKey[[2]int{t.Layer, t.Cluster}] = t
	}
	for rows.Next() {
		var (
			layer, idx int
			blob       []byte
		)
		if err := rows.Scan(&layer, &idx, &blob); err != nil {
			_ = rows.Close()
			return nil, err
		}
		centroid := blobToVector(blob)
		if len(centroid) != len(vector) {
			continue
		}
		results = append(results, scored{byKey[[2]int{layer, idx}], vecmath.CosineDistance(vector, centroid)})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].distance < results[j].distance
	})
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	out := make([]models.Topic, len(results))
	for i, r := range results {
		out[i] = r.topic
	}
	return out, nil
}

// Delete removes a run and everything stored for it
func (s *RunStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}

// nullString converts empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
