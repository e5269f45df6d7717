package entity

// Image 镜像存储中的一个镜像
type Image struct {
	Name      string      `json:"name" yaml:"name"`
	CreatedAt string      `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Disks     []ImageDisk `json:"disks" yaml:"disks"`
}

// ImageDisk 镜像中的一块磁盘
type ImageDisk struct {
	Index  int    `json:"index" yaml:"index"`
	UUID   string `json:"uuid" yaml:"uuid"`
	Key    string `json:"key" yaml:"key"`
	Format string `json:"format" yaml:"format"`
	Size   int64  `json:"size" yaml:"size"`
}

// DescribeImagesRequest 查询镜像，Names 为空时列出全部
type DescribeImagesRequest struct {
	Names []string `json:"names,omitempty"`
}

type DescribeImagesResponse struct {
	Images []Image `json:"images"`
}
