package main

import (
	"net/http"
	"reflect"

	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

type TypeSchema struct {
	Name   string             `json:"name"`
	Schema *jsonschema.Schema `json:"schema"`
}

// schemaTypes are the wire types a job executor or API client has to produce or consume.
var schemaTypes = []any{
	common.ExportRequest{},
	common.Operations{},
	common.Preset{},
	common.Message{},
}

func getSchemas(ctx *gin.Context) {
	schemas := lo.Map(schemaTypes, func(v any, _ int) TypeSchema {
		typ := reflect.TypeOf(v)
		return TypeSchema{
			Name:   typ.Name(),
			Schema: jsonschema.ReflectFromType(typ),
		}
	})

	ctx.JSON(http.StatusOK, schemas)
}
