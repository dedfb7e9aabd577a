package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"kbedit/internal/domain"
)

// MongoStore implements domain.ArticleStore and domain.RevisionStore on a
// MongoDB database, one collection each.
type MongoStore struct {
	client    *mongo.Client
	articles  *mongo.Collection
	revisions *mongo.Collection
}

type articleDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Document  string    `bson:"document,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type revisionDoc struct {
	ID        string    `bson:"_id"`
	ArticleID string    `bson:"articleId"`
	Label     string    `bson:"label"`
	Content   string    `bson:"content"`
	Document  string    `bson:"document,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

// OpenMongo connects to uri and uses database dbName. A password replaces
// the <password> placeholder Atlas connection strings carry.
func OpenMongo(ctx context.Context, uri, dbName, password string) (*MongoStore, error) {
	if password != "" {
		uri = strings.ReplaceAll(uri, "<password>", password)
		uri = strings.ReplaceAll(uri, "<db_password>", password)
	}
	if dbName == "" {
		dbName = "kbedit"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:    client,
		articles:  db.Collection("articles"),
		revisions: db.Collection("revisions"),
	}
	_, err = s.revisions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "articleId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create revision index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ── Articles ───────────────────────────────────────────────

func (s *MongoStore) CreateArticle(ctx context.Context, a *domain.Article) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.articles.InsertOne(ctx, toArticleDoc(a)); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func (s *MongoStore) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	var doc articleDoc
	err := s.articles.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get article %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *MongoStore) ListArticles(ctx context.Context) ([]domain.Article, error) {
	cur, err := s.articles.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	var docs []articleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	out := make([]domain.Article, len(docs))
	for i := range docs {
		out[i] = *docs[i].toDomain()
	}
	return out, nil
}

func (s *MongoStore) UpdateArticle(ctx context.Context, a *domain.Article) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := s.articles.UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{
		"title":     a.Title,
		"content":   a.Content,
		"document":  a.Document,
		"updatedAt": a.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update article %s: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteArticle(ctx context.Context, id string) error {
	if _, err := s.articles.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// ── Revisions ──────────────────────────────────────────────

func (s *MongoStore) PushRevision(ctx context.Context, r *domain.Revision, keep int) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if _, err := s.revisions.InsertOne(ctx, revisionDoc(*r)); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	if keep <= 0 {
		return nil
	}

	cur, err := s.revisions.Find(ctx, bson.M{"articleId": r.ArticleID},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(int64(keep)).
			SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return fmt.Errorf("select revisions to prune: %w", err)
	}
	var stale []revisionDoc
	if err := cur.All(ctx, &stale); err != nil {
		return fmt.Errorf("decode revisions to prune: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	ids := make([]string, len(stale))
	for i, d := range stale {
		ids[i] = d.ID
	}
	if _, err := s.revisions.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	return nil
}

func (s *MongoStore) ListRevisions(ctx context.Context, articleID string) ([]domain.Revision, error) {
	cur, err := s.revisions.Find(ctx, bson.M{"articleId": articleID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	var docs []revisionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode revisions: %w", err)
	}
	out := make([]domain.Revision, len(docs))
	for i, d := range docs {
		out[i] = domain.Revision(d)
	}
	return out, nil
}

func (s *MongoStore) GetRevision(ctx context.Context, id string) (*domain.Revision, error) {
	var doc revisionDoc
	err := s.revisions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get revision %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	r := domain.Revision(doc)
	return &r, nil
}

func (s *MongoStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	// Newest revision per article is kept regardless of age.
	cur, err := s.revisions.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$articleId"},
			{Key: "newest", Value: bson.D{{Key: "$first", Value: "$_id"}}},
		}}},
	})
	if err != nil {
		return 0, fmt.Errorf("find newest revisions: %w", err)
	}
	var newest []struct {
		Newest string `bson:"newest"`
	}
	if err := cur.All(ctx, &newest); err != nil {
		return 0, fmt.Errorf("decode newest revisions: %w", err)
	}
	keep := make([]string, len(newest))
	for i, n := range newest {
		keep[i] = n.Newest
	}

	res, err := s.revisions.DeleteMany(ctx, bson.M{
		"createdAt": bson.M{"$lt": cutoff},
		"_id":       bson.M{"$nin": keep},
	})
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) DeleteRevisions(ctx context.Context, articleID string) error {
	if _, err := s.revisions.DeleteMany(ctx, bson.M{"articleId": articleID}); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}

func toArticleDoc(a *domain.Article) articleDoc {
	return articleDoc{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Document:  a.Document,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (d articleDoc) toDomain() *domain.Article {
	return &domain.Article{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Document:  d.Document,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var (
	_ domain.ArticleStore  = (*MongoStore)(nil)
	_ domain.RevisionStore = (*MongoStore)(nil)
	_ domain.ArticleStore  = (*ArticleStore)(nil)
	_ domain.RevisionStore = (*RevisionStore)(nil)
)
