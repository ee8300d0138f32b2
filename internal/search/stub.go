// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// industry is one bucket of the stub lexicon.
type industry struct {
	Label  string
	Slug   string
	Terms  []string
	Topics []string
}

var industries = []industry{
	{
		Label:  "IT",
		Slug:   "it",
		Terms:  []string{"it", "ai", "dx", "saas", "software", "cloud", "tech", "クラウド", "ソフトウェア", "情報通信", "デジタル"},
		Topics: []string{"生成AIの業務活用", "クラウド移行とコスト最適化", "サイバーセキュリティ対策", "DX人材の育成"},
	},
	{
		Label:  "製造業",
		Slug:   "manufacturing",
		Terms:  []string{"manufacturing", "factory", "製造", "工場", "ものづくり"},
		Topics: []string{"サプライチェーンの再構築", "スマートファクトリー化", "原材料価格の動向", "省人化設備への投資"},
	},
	{
		Label:  "小売業",
		Slug:   "retail",
		Terms:  []string{"retail", "ecommerce", "小売", "店舗", "通販"},
		Topics: []string{"EC化率の推移", "店舗DXと無人化", "消費者物価と購買行動", "インバウンド需要の回復"},
	},
	{
		Label:  "金融業",
		Slug:   "finance",
		Terms:  []string{"finance", "bank", "fintech", "insurance", "金融", "銀行", "保険", "証券"},
		Topics: []string{"金利上昇の影響", "キャッシュレス決済の拡大", "地域金融機関の再編", "資産運用ニーズ"},
	},
	{
		Label:  "医療・ヘルスケア",
		Slug:   "healthcare",
		Terms:  []string{"healthcare", "medical", "hospital", "pharma", "医療", "病院", "介護", "ヘルスケア", "製薬"},
		Topics: []string{"オンライン診療の普及", "介護人材の確保", "医療DXの推進", "診療報酬改定"},
	},
	{
		Label:  "飲食業",
		Slug:   "food-service",
		Terms:  []string{"restaurant", "food", "cafe", "飲食", "外食", "レストラン", "カフェ"},
		Topics: []string{"食材コストの上昇", "テイクアウト需要", "人手不足と省人化", "価格改定の動き"},
	},
	{
		Label:  "不動産業",
		Slug:   "real-estate",
		Terms:  []string{"real estate", "property", "housing", "不動産", "住宅", "賃貸"},
		Topics: []string{"地価の動向", "オフィス空室率", "住宅ローン金利", "不動産テックの活用"},
	},
	{
		Label:  "建設業",
		Slug:   "construction",
		Terms:  []string{"construction", "建設", "建築", "土木", "ゼネコン"},
		Topics: []string{"資材価格の高止まり", "2024年問題への対応", "BIM/CIMの導入", "公共投資の見通し"},
	},
}

var defaultIndustry = industry{
	Label:  "一般",
	Slug:   "general",
	Topics: []string{"中小企業の経営課題", "人材採用と定着", "資金繰りと補助金", "事業承継の進め方"},
}

// stubHosts spreads stub records over a few domains so the diversity
// selector has something to work with.
var stubHosts = []string{
	"industry-report.example.jp",
	"market-watch.example.jp",
	"biz-insight.example.jp",
}

// StubAdapter synthesizes deterministic industry-flavoured records from a
// built-in lexicon. It never fails and makes no network calls.
type StubAdapter struct {
	// Now returns the reference time for published dates. Defaults to time.Now.
	Now func() time.Time
}

func (s *StubAdapter) Name() string { return string(types.SourceStub) }

// Fetch returns count records for the industry matched by query.
func (s *StubAdapter) Fetch(_ context.Context, query string, count int) Fetch {
	if count <= 0 {
		return Fetch{Status: StatusEmpty}
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	base := now().UTC().Truncate(time.Hour)

	ind := matchIndustry(query)
	subject := strings.TrimSpace(query)
	if subject == "" {
		subject = ind.Label
	}

	records := make([]types.ResultRecord, 0, count)
	for i := 0; i < count; i++ {
		topic := ind.Topics[i%len(ind.Topics)]
		host := stubHosts[i%len(stubHosts)]
		published := base.Add(-time.Duration(i) * 24 * time.Hour)
		records = append(records, types.ResultRecord{
			Title: fmt.Sprintf("【%s】%sの最新動向", ind.Label, topic),
			URL:   fmt.Sprintf("https://%s/%s/%d", host, ind.Slug, i+1),
			Snippet: fmt.Sprintf("%s分野の「%s」に関する参考情報です。%sについて市場の動き、主要企業の取り組み、今後の見通しを整理しています。",
				ind.Label, subject, topic),
			Source:      types.SourceStub,
			PublishedAt: &published,
		})
	}
	return fetchOf(records)
}

// matchIndustry returns the first lexicon bucket with a term found in query.
// Latin terms must match a whole word (or word prefix for terms longer than
// three letters) so "it" does not fire on "digital"; other scripts match as
// substrings.
func matchIndustry(query string) industry {
	q := strings.ToLower(query)
	words := strings.FieldsFunc(q, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})

	for _, ind := range industries {
		for _, term := range ind.Terms {
			if isASCII(term) {
				if matchWord(words, q, term) {
					return ind
				}
				continue
			}
			if strings.Contains(q, term) {
				return ind
			}
		}
	}
	return defaultIndustry
}

func matchWord(words []string, q, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(q, term)
	}
	for _, w := range words {
		if w == term || (len(term) > 3 && strings.HasPrefix(w, term)) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for _, r := range s {
		if r >= unicode.MaxASCII {
			return false
		}
	}
	return true
}
