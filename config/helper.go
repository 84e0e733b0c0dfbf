package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Section 把指定节绑定到新的 T 并返回
// section 为空时绑定整个配置
func Section[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}

// Bool 绑定时接受 true/false、0/1 以及它们的字符串形式。
// 环境变量和 etcd 中的 "0"、"1" 会被解析成数字，普通 bool 字段无法绑定。
type Bool bool

// UnmarshalJSON 实现 json.Unmarshaler
func (b *Bool) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := toBool(raw)
	if err != nil {
		return err
	}
	*b = Bool(v)
	return nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case int:
		return intBool(int64(v), value)
	case int64:
		return intBool(v, value)
	case float64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	}
	return false, fmt.Errorf("cannot convert %v to bool", value)
}

func intBool(v int64, value any) (bool, error) {
	if v == 0 || v == 1 {
		return v == 1, nil
	}
	return false, fmt.Errorf("cannot convert %v to bool", value)
}
