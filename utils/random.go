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

package utils

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var idGenerator *snowflake.Node

func init() {
	var err error
	idGenerator, err = snowflake.NewNode(1)
	if err != nil {
		fmt.Println(err)
		return
	}
}

// GenerateNewID returns a cluster-unique, time-ordered 63bit id.
func GenerateNewID() int64 {
	return idGenerator.Generate().Int64()
}
