package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/techblog/internal/storage"
)

// canonicalSort: документы без publishedAt при сортировке по убыванию оказываются в конце.
var canonicalSort = bson.D{
	{Key: "publishedAt", Value: -1},
	{Key: "createdAt", Value: -1},
	{Key: "_id", Value: -1},
}

// postFilter строит один и тот же фильтр для списков, поиска и подсчёта.
func postFilter(f storage.PostFilter) bson.D {
	filter := bson.D{}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	if f.Query != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: rx}},
			bson.D{{Key: "excerpt", Value: rx}},
			bson.D{{Key: "content", Value: rx}},
		}})
	}
	return filter
}

// searchPipeline ставит совпадения по заголовку перед остальными,
// сохраняя внутри групп каноничный порядок.
func searchPipeline(f storage.PostFilter, opts storage.ListOptions) bson.A {
	sort := append(bson.D{{Key: "titleMatch", Value: -1}}, canonicalSort...)

	pipeline := bson.A{
		bson.D{{Key: "$match", Value: postFilter(f)}},
		bson.D{{Key: "$addFields", Value: bson.D{{Key: "titleMatch", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$regexMatch", Value: bson.D{
				{Key: "input", Value: "$title"},
				{Key: "regex", Value: regexp.QuoteMeta(f.Query)},
				{Key: "options", Value: "i"},
			}}},
			1, 0,
		}}}}}}},
		bson.D{{Key: "$sort", Value: sort}},
	}
	if opts.Offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(opts.Offset)}})
	}
	if opts.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(opts.Limit)}})
	}
	return append(pipeline, bson.D{{Key: "$project", Value: bson.D{{Key: "titleMatch", Value: 0}}}})
}
