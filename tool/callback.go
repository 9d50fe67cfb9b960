package tool

import (
	"maps"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/detectview/types"
)

func FastReturnError(msg string) gin.H {
	return gin.H{
		"error": msg,
	}
}

// FastReturnErrorFrom returns the user-facing message of a classified error.
func FastReturnErrorFrom(err error) gin.H {
	return FastReturnError(types.UserMessage(err))
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"status": "ok",
	}
}

func FastReturnSuccessWithData(data any) gin.H {
	return gin.H{
		"data": data,
	}
}

func FastReturnErrorWithData(msg string, data map[string]any) gin.H {
	resp := gin.H{
		"error": msg,
	}
	maps.Copy(resp, data)
	return resp
}
