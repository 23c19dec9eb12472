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

package apis

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/basaltfs/basalt/cmd/apps/apis/apitool"
	"github.com/basaltfs/basalt/pkg/namespace"
	"github.com/basaltfs/basalt/pkg/types"
)

type OpenRequest struct {
	Path string `json:"path" binding:"required"`
	UID  int64  `json:"uid"`
	GID  int64  `json:"gid"`

	types.OpenAttr
}

type CommitApiRequest struct {
	Path     string `json:"path" binding:"required"`
	FileID   string `json:"fid" binding:"required"`
	Size     *int64 `json:"size" binding:"required"`
	NodeID   int64  `json:"add_fsid" binding:"required"`
	MtimeSec *int64 `json:"mtime" binding:"required"`
	MtimeNS  int64  `json:"mtime_ns"`
	Checksum string `json:"checksum,omitempty"`
}

type VerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type MkdirRequest struct {
	Path      string `json:"path" binding:"required"`
	UID       int64  `json:"uid"`
	GID       int64  `json:"gid"`
	Recursive bool   `json:"recursive"`
}

type QuotaRequest struct {
	Path  string `json:"path" binding:"required"`
	Space string `json:"space,omitempty"`
}

func (s *Server) Open(gCtx *gin.Context) {
	var req OpenRequest
	if err := gCtx.ShouldBindJSON(&req); err != nil {
		apitool.ErrorResponse(gCtx, types.ErrInvalidArg)
		return
	}
	red, err := s.ctrl.Open(gCtx.Request.Context(), types.NewVirtualIdentity(req.UID, req.GID), req.Path, req.OpenAttr)
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, red)
}

func (s *Server) Commit(gCtx *gin.Context) {
	var req CommitApiRequest
	if err := gCtx.ShouldBindJSON(&req); err != nil {
		apitool.ErrorResponse(gCtx, types.ErrInvalidArg)
		return
	}
	fid, err := strconv.ParseInt(req.FileID, 16, 64)
	if err != nil {
		apitool.ErrorResponse(gCtx, types.ErrInvalidArg)
		return
	}
	var checksum []byte
	if req.Checksum != "" {
		if checksum, err = hex.DecodeString(req.Checksum); err != nil {
			apitool.ErrorResponse(gCtx, types.ErrInvalidArg)
			return
		}
	}

	err = s.ctrl.Commit(gCtx.Request.Context(), types.CommitRequest{
		Path:     req.Path,
		FileID:   fid,
		Size:     *req.Size,
		NodeID:   req.NodeID,
		MtimeSec: *req.MtimeSec,
		MtimeNS:  req.MtimeNS,
		Checksum: checksum,
	})
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"committed": true})
}

func (s *Server) VerifyCapability(gCtx *gin.Context) {
	var req VerifyRequest
	if err := gCtx.ShouldBindJSON(&req); err != nil {
		apitool.ErrorResponse(gCtx, types.ErrInvalidArg)
		return
	}
	attrs, err := s.ctrl.VerifyCapability(gCtx.Request.Context(), req.Token)
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"payload": attrs.Encode()})
}

func (s *Server) Stat(gCtx *gin.Context) {
	st, err := s.ctrl.Stat(gCtx.Request.Context(), gCtx.Query("path"))
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, st)
}

func (s *Server) Exists(gCtx *gin.Context) {
	cls, err := s.ctrl.Exists(gCtx.Request.Context(), gCtx.Query("path"))
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	var kind string
	switch cls {
	case namespace.File:
		kind = "file"
	case namespace.Directory:
		kind = "directory"
	default:
		kind = "missing"
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"kind": kind})
}

func (s *Server) ListDirectory(gCtx *gin.Context) {
	dir, err := s.ctrl.OpenDirectory(gCtx.Request.Context(), gCtx.Query("path"))
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	names := make([]string, 0)
	for {
		name, ok := dir.NextEntry()
		if !ok {
			break
		}
		names = append(names, name)
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"entries": names})
}

func (s *Server) Mkdir(gCtx *gin.Context) {
	var req MkdirRequest
	if err := gCtx.ShouldBindJSON(&req); err != nil {
		apitool.ErrorResponse(gCtx, types.ErrInvalidArg)
		return
	}
	en, err := s.ctrl.Mkdir(gCtx.Request.Context(), types.NewVirtualIdentity(req.UID, req.GID), req.Path, req.Recursive)
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"id": en.ID})
}

func (s *Server) RemoveContainer(gCtx *gin.Context) {
	err := s.ctrl.RemoveContainer(gCtx.Request.Context(), identityFromQuery(gCtx), gCtx.Query("path"))
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"removed": true})
}

func (s *Server) RemoveFile(gCtx *gin.Context) {
	err := s.ctrl.RemoveFile(gCtx.Request.Context(), identityFromQuery(gCtx), gCtx.Query("path"))
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"removed": true})
}

func (s *Server) RegisterQuota(gCtx *gin.Context) {
	var req QuotaRequest
	if err := gCtx.ShouldBindJSON(&req); err != nil {
		apitool.ErrorResponse(gCtx, types.ErrInvalidArg)
		return
	}
	if err := s.ctrl.RegisterQuota(gCtx.Request.Context(), req.Path, req.Space); err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"registered": true})
}

func (s *Server) RemoveQuota(gCtx *gin.Context) {
	if err := s.ctrl.RemoveQuota(gCtx.Request.Context(), gCtx.Query("path")); err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"removed": true})
}

func (s *Server) QuotaReport(gCtx *gin.Context) {
	uid, _ := strconv.ParseInt(gCtx.Query("uid"), 10, 64)
	gid, _ := strconv.ParseInt(gCtx.Query("gid"), 10, 64)
	usage, err := s.ctrl.QuotaReport(gCtx.Request.Context(), gCtx.Query("path"), uid, gid)
	if err != nil {
		apitool.ErrorResponse(gCtx, err)
		return
	}
	apitool.JsonResponse(gCtx, http.StatusOK, usage)
}

func (s *Server) Nodes(gCtx *gin.Context) {
	apitool.JsonResponse(gCtx, http.StatusOK, gin.H{"nodes": s.ctrl.ListNodes(gCtx.Request.Context())})
}

func identityFromQuery(gCtx *gin.Context) types.VirtualIdentity {
	uid, _ := strconv.ParseInt(gCtx.Query("uid"), 10, 64)
	gid, _ := strconv.ParseInt(gCtx.Query("gid"), 10, 64)
	return types.NewVirtualIdentity(uid, gid)
}
