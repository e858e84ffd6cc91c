package main

// 引入平台插件，触发 init() 完成注册
import (
	_ "github.com/sshcollectorpro/apcounter/addone/collect/platforms/cisco_ios"
	_ "github.com/sshcollectorpro/apcounter/addone/interact/platforms/cisco_ios"
)
