/*
Copyright 2017 The Kubernetes Authors.

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

package main

import (
	"os"

	"k8s.io/klog/v2"
)

// @title						Approval API
// @version						1.0.0
// @description					Multi-step approval workflow service.
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
// @description					使用 approval token 生成 TOKEN 后，填入 'Bearer ${TOKEN}' 以访问受保护的接口
func main() {
	if err := newRootCmd().Execute(); err != nil {
		klog.Error(err)
		os.Exit(1)
	}
}
