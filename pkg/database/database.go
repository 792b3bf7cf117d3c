package database

import (
	"gorm.io/gorm"
)

var db *gorm.DB

// Init 用给定的方言打开数据库连接，测试传入sqlite方言
func Init(dialector gorm.Dialector, opts ...gorm.Option) error {
	conn, err := gorm.Open(dialector, opts...)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

// Database 获取全局数据库连接
func Database() *gorm.DB {
	return db
}
