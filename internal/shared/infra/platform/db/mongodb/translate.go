package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

// FilterToBSON traduce el filtro compilado a un documento de consulta.
// Los operadores ya vienen en su forma nativa ($gte...) y se agrupan por campo.
func FilterToBSON(f query.Filter) bson.D {
	filter := bson.D{}
	index := make(map[string]int)
	for _, c := range f {
		i, ok := index[c.Field]
		if !ok {
			index[c.Field] = len(filter)
			filter = append(filter, bson.E{Key: c.Field, Value: bson.D{}})
			i = len(filter) - 1
		}
		ops := filter[i].Value.(bson.D)
		filter[i].Value = append(ops, bson.E{Key: string(c.Op), Value: c.Value})
	}
	return filter
}

// SortToBSON conserva el orden de desempate.
func SortToBSON(fields []query.SortField) bson.D {
	sort := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return sort
}

func ProjectionToBSON(p query.Projection) bson.D {
	flag := 1
	if p.Mode == query.Exclude {
		flag = 0
	}
	proj := make(bson.D, 0, len(p.Fields))
	for _, f := range p.Fields {
		proj = append(proj, bson.E{Key: f, Value: flag})
	}
	return proj
}

// FindOptions aplica orden, proyección y ventana del descriptor. Las
// dimensiones a nil quedan con el comportamiento por defecto del servidor.
func FindOptions(d query.Descriptor) *options.FindOptions {
	opts := options.Find()
	if len(d.Sort) > 0 {
		opts.SetSort(SortToBSON(d.Sort))
	}
	if d.Projection != nil && len(d.Projection.Fields) > 0 {
		opts.SetProjection(ProjectionToBSON(*d.Projection))
	}
	if d.Page != nil {
		opts.SetSkip(d.Page.Skip)
		opts.SetLimit(int64(d.Page.Size))
	}
	return opts
}
