package consul

import (
	"fmt"
	"net"
	"time"

	consulApi "github.com/hashicorp/consul/api"

	"github.com/kamari/service/config"
	"github.com/kamari/service/errors"
)

var privateBlocks []*net.IPNet

func init() {
	for _, b := range []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "100.64.0.0/10"} {
		if _, block, err := net.ParseCIDR(b); err == nil {
			privateBlocks = append(privateBlocks, block)
		}
	}
}

// NewClient 创建 consul 客户端
func NewClient(cfg config.Consul) (*consulApi.Client, error) {
	host, port := cfg.Host, cfg.Port
	if host == "" {
		host = "consul"
	}
	if port == 0 {
		port = 8500
	}
	cc := consulApi.DefaultConfig()
	cc.Address = fmt.Sprintf("%s:%d", host, port)
	cli, err := consulApi.NewClient(cc)
	if err != nil {
		return nil, errors.Wrap(errors.Internal, err, "consul client")
	}
	return cli, nil
}

// Registration 服务注册信息
type Registration struct {
	ID   string
	Name string
	Host string
	Port int
	Tags []string
}

// Registrar registers the service with the local consul agent.
type Registrar struct {
	cli *consulApi.Client
	reg Registration
}

// NewRegistrar 创建服务注册
func NewRegistrar(cli *consulApi.Client, reg Registration) *Registrar {
	return &Registrar{cli: cli, reg: reg}
}

// Register 服务注册, health checked through GET /check.
func (r *Registrar) Register() error {
	check := &consulApi.AgentServiceCheck{
		CheckID:                        r.reg.ID,
		HTTP:                           fmt.Sprintf("http://%s/check", net.JoinHostPort(r.reg.Host, fmt.Sprint(r.reg.Port))),
		Interval:                       fmt.Sprintf("%v", 10*time.Second),
		Timeout:                        fmt.Sprintf("%v", 30*time.Second),
		DeregisterCriticalServiceAfter: fmt.Sprintf("%v", deregisterTTL(30*time.Second)),
	}
	asr := &consulApi.AgentServiceRegistration{
		ID:      r.reg.ID,
		Name:    r.reg.Name,
		Tags:    r.reg.Tags,
		Port:    r.reg.Port,
		Address: r.reg.Host,
		Check:   check,
	}
	if err := r.cli.Agent().ServiceRegister(asr); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "consul register")
	}
	return nil
}

// Deregister 服务断开
func (r *Registrar) Deregister() error {
	if err := r.cli.Agent().ServiceDeregister(r.reg.ID); err != nil {
		return errors.Wrap(errors.UpstreamFailure, err, "consul deregister")
	}
	return nil
}

func deregisterTTL(t time.Duration) time.Duration {
	splay := time.Second * 5
	deregTTL := t + splay
	// consul has a minimum timeout on deregistration of 1 minute.
	if t < time.Minute {
		deregTTL = time.Minute + splay
	}
	return deregTTL
}

// ResolveHost returns addr, or the first private IPv4 address of this host
// when addr is empty or a wildcard.
func ResolveHost(addr string) (string, error) {
	if len(addr) > 0 && addr != "0.0.0.0" && addr != "[::]" && addr != "::" {
		return addr, nil
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("获取地址失败: %s", err.Error())
	}
	for _, rawAddr := range addrs {
		var ip net.IP
		switch a := rawAddr.(type) {
		case *net.IPAddr:
			ip = a.IP
		case *net.IPNet:
			ip = a.IP
		default:
			continue
		}
		if ip.To4() == nil || !isPrivateIP(ip) {
			continue
		}
		return ip.String(), nil
	}
	return "", fmt.Errorf("找不到私有IP地址")
}

func isPrivateIP(ip net.IP) bool {
	for _, priv := range privateBlocks {
		if priv.Contains(ip) {
			return true
		}
	}
	return false
}
