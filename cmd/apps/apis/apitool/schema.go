/*
 Copyright 2025 Basalt Authors.

 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package apitool

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/basaltfs/basalt/pkg/types"
)

type ApiErrorCode string

const (
	CodeNotFound     ApiErrorCode = "NOT_FOUND"
	CodeIsExist      ApiErrorCode = "ALREADY_EXISTS"
	CodeNoGroup      ApiErrorCode = "NOT_A_DIRECTORY"
	CodeIsGroup      ApiErrorCode = "IS_A_DIRECTORY"
	CodeNotEmpty     ApiErrorCode = "NOT_EMPTY"
	CodeNoPerm       ApiErrorCode = "PERMISSION_DENIED"
	CodeInvalidArg   ApiErrorCode = "INVALID_ARGUMENT"
	CodeNoSpace      ApiErrorCode = "NO_SPACE"
	CodeConflict     ApiErrorCode = "CONFLICT"
	CodeInternal     ApiErrorCode = "INTERNAL"
)

type Response struct {
	Status int         `json:"status"`
	Error  *Error      `json:"error,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

type Error struct {
	Code    ApiErrorCode `json:"code"`
	Message string       `json:"message"`
}

func Error2ApiErrorCode(err error) (int, ApiErrorCode) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, types.ErrIsExist):
		return http.StatusConflict, CodeIsExist
	case errors.Is(err, types.ErrNoGroup):
		return http.StatusBadRequest, CodeNoGroup
	case errors.Is(err, types.ErrIsGroup):
		return http.StatusBadRequest, CodeIsGroup
	case errors.Is(err, types.ErrNotEmpty):
		return http.StatusConflict, CodeNotEmpty
	case errors.Is(err, types.ErrNoPerm):
		return http.StatusForbidden, CodeNoPerm
	case errors.Is(err, types.ErrInvalidArg):
		return http.StatusBadRequest, CodeInvalidArg
	case errors.Is(err, types.ErrNoSpace):
		return http.StatusInsufficientStorage, CodeNoSpace
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func ErrorResponse(gCtx *gin.Context, err error) {
	status, code := Error2ApiErrorCode(err)
	gCtx.JSON(status, Response{
		Status: status,
		Error:  &Error{Code: code, Message: err.Error()},
	})
}

func JsonResponse(gCtx *gin.Context, status int, data interface{}) {
	gCtx.JSON(status, Response{Status: status, Data: data})
}
