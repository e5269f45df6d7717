package entity

// VMInfo VM 概要信息
type VMInfo struct {
	Name     string `json:"name"`
	UUID     string `json:"uuid"`
	State    string `json:"state"`
	MaxMemKB uint64 `json:"max_mem"`
	MemKB    uint64 `json:"mem"`
	NumCPU   uint16 `json:"num_cpu"`
	CPUTime  uint64 `json:"cpu_time"`
}

type DescribeVMRequest struct {
	VMName string `json:"vm" binding:"required"`
}

type DescribeVMResponse struct {
	VM *VMInfo `json:"vm"`
}
