// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package matcher 把生成式服务产出的自由文本落到具体的历史采购记录上：
// 推荐文字只有解析出真实的单价与供应商，后续请购单才有可信的数字来源。
// 匹配是尽力而为的启发式，低于阈值时返回 nil，调用方必须能降级到推荐缺省值。
package matcher

import (
	"strconv"
	"strings"

	"procurement-platform/internal/records"
)

// 计分权重与接受阈值。阈值为含边界：得分恰好等于阈值时接受。
const (
	scoreNameVerbatim  = 10 // 记录产品名整串出现在推荐文本中
	scoreNameKeyword   = 5  // 产品名单个关键字（长度>2）出现在文本中
	scoreCategory      = 8  // 记录类别出现在文本中
	scoreTypeKeyword   = 1  // 关键字命中结构化需求的 product_type
	scoreBudgetFit     = 3  // 单价不超预算
	scoreBudgetNear    = 1  // 单价超预算但在 10% 弹性内
	scorePriceVerbatim = 3  // 单价数值原样出现在文本中

	ThresholdGeneral     = 3 // 纯文本匹配的最低分
	ThresholdRequirement = 5 // 带结构化需求匹配的最低分
)

// Requirement 匹配用的结构化需求摘要（由生成式服务从使用者输入抽取）
type Requirement struct {
	ProductType string
	Budget      int
}

// Resolve 在历史记录中为推荐文本找唯一对应记录；无法达到阈值时返回 nil。
// 对固定输入结果确定：同分时保留列表中靠前的记录。
func Resolve(recommendation string, history []records.HistoricalRecord) *records.HistoricalRecord {
	return pick(recommendation, Requirement{}, history, ThresholdGeneral)
}

// ResolveRequirement 以结构化需求为主、推荐文本为辅做匹配，阈值更高。
func ResolveRequirement(req Requirement, recommendation string, history []records.HistoricalRecord) *records.HistoricalRecord {
	return pick(recommendation, req, history, ThresholdRequirement)
}

func pick(text string, req Requirement, history []records.HistoricalRecord, threshold int) *records.HistoricalRecord {
	textLower := strings.ToLower(text)

	var best *records.HistoricalRecord
	bestScore := 0
	for i := range history {
		s := score(&history[i], textLower, req)
		// 严格大于：同分取先出现者
		if s >= threshold && s > bestScore {
			best = &history[i]
			bestScore = s
		}
	}
	return best
}

// score 累计单条记录对 (文本, 需求) 的匹配得分
func score(rec *records.HistoricalRecord, textLower string, req Requirement) int {
	total := 0
	nameLower := strings.ToLower(rec.ProductName)
	categoryLower := strings.ToLower(rec.Category)

	if nameLower != "" && strings.Contains(textLower, nameLower) {
		total += scoreNameVerbatim
	}
	for _, kw := range keywords(nameLower) {
		if strings.Contains(textLower, kw) {
			total += scoreNameKeyword
		}
	}
	if categoryLower != "" && strings.Contains(textLower, categoryLower) {
		total += scoreCategory
	}

	if typ := strings.ToLower(req.ProductType); typ != "" {
		for _, kw := range keywords(nameLower) {
			if strings.Contains(typ, kw) {
				total += scoreTypeKeyword
			}
		}
	}
	if req.Budget > 0 && rec.UnitPrice > 0 {
		switch {
		case rec.UnitPrice <= req.Budget:
			total += scoreBudgetFit
		case float64(rec.UnitPrice) <= float64(req.Budget)*1.1:
			total += scoreBudgetNear
		}
	}
	if rec.UnitPrice > 0 && strings.Contains(textLower, strconv.Itoa(rec.UnitPrice)) {
		total += scorePriceVerbatim
	}
	return total
}

// keywords 拆分产品名为匹配关键字，忽略过短的片段
func keywords(nameLower string) []string {
	parts := strings.Fields(nameLower)
	out := parts[:0:0]
	for _, p := range parts {
		if len(p) > 2 {
			out = append(out, p)
		}
	}
	return out
}
