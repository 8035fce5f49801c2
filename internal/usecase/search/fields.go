package search

import "github.com/corpusgate/corpusgate/internal/domain/search/stype"

// fieldsByType lists the document field names probed for an exact match of
// each search type. Stored corpora mix English and Chinese schemas, so both
// alias families are carried.
var fieldsByType = map[stype.Type][]string{
	stype.Name:    {"name", "username", "realname", "nickname", "姓名", "名字"},
	stype.IDCard:  {"idcard", "id_card", "identity", "身份证", "证件号"},
	stype.Phone:   {"phone", "mobile", "tel", "telephone", "手机", "手机号", "电话"},
	stype.QQ:      {"qq", "qq_number", "qqnum", "QQ"},
	stype.WeChat:  {"wechat", "weixin", "wxid", "微信", "微信号"},
	stype.Weibo:   {"weibo", "weibo_id", "微博"},
	stype.Email:   {"email", "mail", "邮箱"},
	stype.Address: {"address", "addr", "地址", "住址"},
	stype.Company: {"company", "employer", "work_unit", "公司", "单位"},
}

// matchFields returns the candidate field names for a search type.
func matchFields(t stype.Type) []string {
	return fieldsByType[t]
}
